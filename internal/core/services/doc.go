// Package services implements the driving ports on top of the driven ones.
//
// A query flows Classifier -> SearchRouter -> ContextSelector ->
// Aggregator, with the QueryService tying the stages together behind the
// admission Gate. ContextService and ContextLoader manage the stored
// contexts the selector ranks; SettingsService maps the config store onto
// domain.Settings.
package services
