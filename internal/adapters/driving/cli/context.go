package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

var (
	contextID       string
	contextDomain   string
	contextContent  string
	contextTags     []string
	contextPriority int
	contextTTL      time.Duration
	contextMeta     map[string]string
	contextJSON     bool
	contextWatch    bool
)

var contextCmd = &cobra.Command{
	Use:     "context",
	Aliases: []string{"ctx"},
	Short:   "Manage stored contexts",
	Long: `Add, inspect, update and remove the knowledge fragments that are ranked
against queries. Contexts can also be loaded from a TOML definition file.`,
}

var contextAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a context",
	Long: `Add a context. An id is generated when --id is not given and the
domain defaults to "general".`,
	Args: cobra.NoArgs,
	RunE: runContextAdd,
}

var contextGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextGet,
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contexts",
	Args:  cobra.NoArgs,
	RunE:  runContextList,
}

var contextUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a context",
	Long:  `Update the fields given as flags. Other fields keep their stored values.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runContextUpdate,
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextDelete,
}

var contextLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load contexts from a TOML file",
	Long: `Load every [[contexts]] table of a TOML file. Contexts that already
exist are updated when their definition changed.

With --watch the file is reloaded on every change until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runContextLoad,
}

var contextPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired contexts",
	Args:  cobra.NoArgs,
	RunE:  runContextPurge,
}

func init() {
	addFieldFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&contextDomain, "domain", "", "domain label (e.g. medical, technical)")
		cmd.Flags().StringVar(&contextContent, "content", "", "context text")
		cmd.Flags().StringSliceVar(&contextTags, "tags", nil, "comma-separated tags")
		cmd.Flags().IntVar(&contextPriority, "priority", 0, "priority from 0 to 10")
		cmd.Flags().DurationVar(&contextTTL, "ttl", 0, "expire the context after this duration")
		cmd.Flags().StringToStringVar(&contextMeta, "meta", nil, "metadata as key=value pairs")
	}

	addFieldFlags(contextAddCmd)
	contextAddCmd.Flags().StringVar(&contextID, "id", "", "context id (generated when empty)")
	contextAddCmd.Flags().BoolVar(&contextJSON, "json", false, "output as JSON")

	addFieldFlags(contextUpdateCmd)
	contextUpdateCmd.Flags().BoolVar(&contextJSON, "json", false, "output as JSON")

	contextGetCmd.Flags().BoolVar(&contextJSON, "json", false, "output as JSON")

	contextListCmd.Flags().StringVar(&contextDomain, "domain", "", "only list contexts of this domain")
	contextListCmd.Flags().BoolVar(&contextJSON, "json", false, "output as JSON")

	contextLoadCmd.Flags().BoolVarP(&contextWatch, "watch", "w", false, "reload the file when it changes")

	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextGetCmd)
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextUpdateCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	contextCmd.AddCommand(contextLoadCmd)
	contextCmd.AddCommand(contextPurgeCmd)
	rootCmd.AddCommand(contextCmd)
}

func runContextAdd(cmd *cobra.Command, _ []string) error {
	if contextService == nil {
		return errContextServiceMissing
	}

	c := domain.Context{
		ID:       contextID,
		Domain:   contextDomain,
		Content:  contextContent,
		Tags:     contextTags,
		Priority: contextPriority,
		Metadata: contextMeta,
	}
	if contextTTL > 0 {
		expires := time.Now().Add(contextTTL)
		c.ExpiresAt = &expires
	}

	ctx := commandContext(cmd)
	id, err := contextService.Add(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to add context: %w", err)
	}

	if contextJSON {
		stored, err := contextService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get context: %w", err)
		}
		return printJSON(cmd, stored)
	}
	cmd.Printf("Added context %s\n", id)
	return nil
}

func runContextGet(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errContextServiceMissing
	}

	c, err := contextService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get context: %w", err)
	}

	if contextJSON {
		return printJSON(cmd, c)
	}
	printContext(cmd, c)
	return nil
}

func runContextList(cmd *cobra.Command, _ []string) error {
	if contextService == nil {
		return errContextServiceMissing
	}

	contexts, err := contextService.ListByDomain(commandContext(cmd), contextDomain)
	if err != nil {
		return fmt.Errorf("failed to list contexts: %w", err)
	}

	if contextJSON {
		return printJSON(cmd, contexts)
	}
	if len(contexts) == 0 {
		cmd.Println("No contexts stored.")
		return nil
	}
	for i := range contexts {
		c := &contexts[i]
		cmd.Printf("  %s [%s] p%d v%d  %s\n", c.ID, c.Domain, c.Priority, c.Version, truncate(c.Content, 60))
	}
	cmd.Printf("\n%d context(s)\n", len(contexts))
	return nil
}

func runContextUpdate(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errContextServiceMissing
	}

	flags := cmd.Flags()
	changed := false
	for _, name := range []string{"domain", "content", "tags", "priority", "ttl", "meta"} {
		if flags.Changed(name) {
			changed = true
			break
		}
	}
	if !changed {
		return errors.New("nothing to update: pass at least one field flag")
	}

	now := time.Now()
	updated, err := contextService.Update(commandContext(cmd), args[0], func(c *domain.Context) error {
		if flags.Changed("domain") {
			c.Domain = contextDomain
		}
		if flags.Changed("content") {
			c.Content = contextContent
		}
		if flags.Changed("tags") {
			c.Tags = contextTags
		}
		if flags.Changed("priority") {
			c.Priority = contextPriority
		}
		if flags.Changed("ttl") {
			if contextTTL > 0 {
				expires := now.Add(contextTTL)
				c.ExpiresAt = &expires
			} else {
				c.ExpiresAt = nil
			}
		}
		if flags.Changed("meta") {
			if c.Metadata == nil {
				c.Metadata = make(map[string]string, len(contextMeta))
			}
			for k, v := range contextMeta {
				c.Metadata[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update context: %w", err)
	}

	if contextJSON {
		return printJSON(cmd, updated)
	}
	cmd.Printf("Updated context %s (version %d)\n", updated.ID, updated.Version)
	return nil
}

func runContextDelete(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errContextServiceMissing
	}

	if err := contextService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}
	cmd.Printf("Deleted context %s\n", args[0])
	return nil
}

func runContextLoad(cmd *cobra.Command, args []string) error {
	if contextLoader == nil {
		return errContextLoaderMissing
	}

	ctx := commandContext(cmd)
	n, err := contextLoader.LoadFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load contexts: %w", err)
	}
	cmd.Printf("Loaded %d context(s) from %s\n", n, args[0])

	if !contextWatch {
		return nil
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", args[0])
	return contextLoader.Watch(ctx, args[0])
}

func runContextPurge(cmd *cobra.Command, _ []string) error {
	if contextService == nil {
		return errContextServiceMissing
	}

	n, err := contextService.PurgeExpired(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to purge contexts: %w", err)
	}
	cmd.Printf("Removed %d expired context(s)\n", n)
	return nil
}

func printContext(cmd *cobra.Command, c *domain.Context) {
	cmd.Printf("ID:       %s\n", c.ID)
	cmd.Printf("Domain:   %s\n", c.Domain)
	cmd.Printf("Priority: %d\n", c.Priority)
	cmd.Printf("Version:  %d\n", c.Version)
	if len(c.Tags) > 0 {
		cmd.Printf("Tags:     %s\n", strings.Join(c.Tags, ", "))
	}
	cmd.Printf("Created:  %s\n", c.CreatedAt.Format(time.RFC3339))
	cmd.Printf("Updated:  %s\n", c.UpdatedAt.Format(time.RFC3339))
	if c.ExpiresAt != nil {
		cmd.Printf("Expires:  %s\n", c.ExpiresAt.Format(time.RFC3339))
	}
	for k, v := range c.Metadata {
		cmd.Printf("Meta:     %s=%s\n", k, v)
	}
	cmd.Println()
	cmd.Println(c.Content)
}
