package config

import "baselinebuilder/pkg/contracts"

// Application constants
const (
	AppName    = "baseline-builder"
	AppVersion = contracts.Version
)

// Form field names shared by the HTTP transport and its tests.
const (
	FormFieldFile     = "file"
	FormFieldUnit     = "unit"
	FormFieldDiscount = "discount"
	FormFieldFormat   = "format"
)
