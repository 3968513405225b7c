// Package validation checks configuration structs.
//
// Struct tags cover most fields:
//
//	type RetryConfig struct {
//	    MaxRetries int `json:"max_retries" validate:"gte=0,lte=10"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules use the collecting Validator:
//
//	v := validation.New()
//	v.Custom(cfg.Timeout > 0, "timeout", "must be positive")
//	err := v.Validate()
package validation
