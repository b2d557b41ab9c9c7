package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"

	"github.com/cmbsims/scanpar/pkg/params"
)

// PromptForParameters walks the schema in group order and asks for a
// value for every field, returning one entry per field. Environment
// variables named SCANPAR_<KEY> pre-fill defaults; setting
// SCANPAR_SKIP_PROMPTS=true (or running without a terminal) answers
// every prompt from the environment or the schema defaults.
func PromptForParameters(schema *params.Schema) ([]params.Entry, error) {
	if skipPrompts() || !term.IsTerminal(int(os.Stdin.Fd())) {
		return DefaultEntries(schema)
	}

	entries := make([]params.Entry, 0, schema.Len())
	for _, group := range schema.Groups() {
		for _, field := range schema.Group(group) {
			entry, err := promptForField(field, true)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s: %w", field.Key, err)
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// DefaultEntries resolves every schema field without prompting, from
// the environment or the schema defaults.
func DefaultEntries(schema *params.Schema) ([]params.Entry, error) {
	entries := make([]params.Entry, 0, schema.Len())
	for _, group := range schema.Groups() {
		for _, field := range schema.Group(group) {
			entry, err := promptForField(field, false)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s: %w", field.Key, err)
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func skipPrompts() bool {
	return strings.EqualFold(os.Getenv("SCANPAR_SKIP_PROMPTS"), "true")
}

// promptForField resolves one schema field to an entry. The
// non-interactive path takes the environment value or the default.
func promptForField(field params.Field, interactive bool) (params.Entry, error) {
	def := field.Default
	if env := os.Getenv(envKey(field.Key)); env != "" {
		def = env
	}

	if !interactive {
		if def == "" && field.Required {
			return params.Entry{}, fmt.Errorf("no value for required parameter and prompts are disabled")
		}
		return fieldEntry(field, def)
	}

	raw, err := promptValue(field, def)
	if err != nil {
		return params.Entry{}, err
	}
	return fieldEntry(field, raw)
}

func envKey(key string) string {
	return "SCANPAR_" + strings.ToUpper(key)
}

// fieldEntry coerces a raw answer with the field's tag. None is only
// honoured on fields that accept it.
func fieldEntry(field params.Field, raw string) (params.Entry, error) {
	if field.AllowNone && strings.EqualFold(raw, "none") {
		return params.NewEntry(field.Key, "None", params.TagNone)
	}
	return params.NewEntry(field.Key, raw, field.Tag)
}

func promptValue(field params.Field, def string) (string, error) {
	if len(field.Options) > 0 {
		return promptSelect(field, def)
	}

	switch field.Tag {
	case params.TagBool:
		return promptBool(field, def)
	case params.TagInt, params.TagFloat:
		return promptNumber(field, def)
	default:
		return promptString(field, def)
	}
}

func promptSelect(field params.Field, def string) (string, error) {
	prompt := &survey.Select{
		Message: message(field),
		Options: field.Options,
		Default: def,
	}

	var result string
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func promptString(field params.Field, def string) (string, error) {
	prompt := &survey.Input{
		Message: message(field),
		Default: def,
	}

	var validators []survey.Validator
	if field.Required && !field.AllowNone {
		validators = append(validators, survey.Required)
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
		return "", err
	}
	return result, nil
}

func promptNumber(field params.Field, def string) (string, error) {
	prompt := &survey.Input{
		Message: message(field),
		Default: def,
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(numberValidator(field))); err != nil {
		return "", err
	}
	return result, nil
}

// numberValidator rejects answers the entry coercion would reject,
// so the user can correct them instead of aborting the walk.
func numberValidator(field params.Field) survey.Validator {
	return func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected a text answer")
		}
		if field.AllowNone && strings.EqualFold(str, "none") {
			return nil
		}

		var value float64
		switch field.Tag {
		case params.TagInt:
			i, err := strconv.ParseInt(str, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer")
			}
			value = float64(i)
		default:
			f, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return fmt.Errorf("invalid number")
			}
			value = f
		}

		if field.Min != nil && value < *field.Min {
			return fmt.Errorf("value must be at least %g", *field.Min)
		}
		if field.Max != nil && value > *field.Max {
			return fmt.Errorf("value must be at most %g", *field.Max)
		}
		return nil
	}
}

func promptBool(field params.Field, def string) (string, error) {
	prompt := &survey.Confirm{
		Message: message(field),
		Default: strings.EqualFold(def, "true"),
	}

	var result bool
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	if result {
		return "True", nil
	}
	return "False", nil
}

func message(field params.Field) string {
	if field.Description != "" {
		return field.Description
	}
	return field.Key
}
