package env

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/georgesgallery/gallery-go/service/logger"
	"github.com/spf13/viper"
)

var validators = map[string][]string{}

var v = validator.New()

var validatorsMu = &sync.Mutex{}

// RegisterValidation attaches validator tags to an env var. Tags are checked
// each time the var is read so misconfiguration shows up in the logs early.
func RegisterValidation(name string, tags ...string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = dedupe(append(validators[name], tags...))
}

// GetString reads a string env var, running any registered validations.
func GetString(name string) string {
	s := viper.GetString(name)
	checkValidations(name, s)
	return s
}

// GetBool reads a boolean env var.
func GetBool(name string) bool {
	return viper.GetBool(name)
}

// IsSet reports whether the env var has a value from any viper source.
func IsSet(name string) bool {
	return viper.IsSet(name) && viper.GetString(name) != ""
}

func checkValidations(name string, value string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	for _, tag := range validators[name] {
		if err := v.Var(value, tag); err != nil {
			logger.For(nil).Errorf("invalid env var: %s, tag: %s, err: %s", name, tag, err.Error())
		}
	}
}

func dedupe(src []string) []string {
	result := src[:0]

	seen := make(map[string]bool)
	for _, x := range src {
		if !seen[x] {
			result = append(result, x)
			seen[x] = true
		}
	}
	return result
}
