// Package envselect decides which configured environment a command talks to.
package envselect

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/procharity/pcadmin/internal/cli/config"
	"github.com/procharity/pcadmin/internal/cli/userconfig"
)

// ResolveEnvironment picks an environment from projectConfig. An explicit
// alias wins. Otherwise the remembered selection is used, then the only
// configured environment, then an interactive prompt. Problems with the
// user state file never block a command; they are reported on warnings.
func ResolveEnvironment(projectConfig *config.Config, alias string, warnings io.Writer) (*config.Environment, error) {
	if alias != "" {
		return projectConfig.GetEnvironmentByAlias(alias)
	}

	if env := selected(projectConfig, warnings); env != nil {
		return env, nil
	}

	var env *config.Environment
	if len(projectConfig.Environments) == 1 {
		env = &projectConfig.Environments[0]
	} else {
		var err error
		if env, err = PromptEnvironmentSelection(projectConfig); err != nil {
			return nil, err
		}
	}

	if err := userconfig.SetSelectedEnvironment(env.URL); err != nil {
		fmt.Fprintf(warnings, "Warning: failed to save selected environment: %v\n", err)
	}
	return env, nil
}

// selected returns the remembered environment if it is still configured
func selected(projectConfig *config.Config, warnings io.Writer) *config.Environment {
	url, err := userconfig.GetSelectedEnvironment()
	if err != nil {
		fmt.Fprintf(warnings, "Warning: ignoring user config: %v\n", err)
		return nil
	}
	if url == "" {
		return nil
	}

	env, err := projectConfig.GetEnvironmentByURLOrAlias(url)
	if err != nil {
		// Removed from pcadmin.yaml since it was selected
		_ = userconfig.SetSelectedEnvironment("")
		return nil
	}
	return env
}

type choice struct {
	Label string
	Env   *config.Environment
}

// PromptEnvironmentSelection asks the user to pick an environment
func PromptEnvironmentSelection(projectConfig *config.Config) (*config.Environment, error) {
	if len(projectConfig.Environments) == 0 {
		return nil, fmt.Errorf("no environments configured in %s", config.ConfigFileName)
	}

	choices := make([]choice, 0, len(projectConfig.Environments))
	for i := range projectConfig.Environments {
		env := &projectConfig.Environments[i]
		choices = append(choices, choice{Label: env.Alias + " (" + env.URL + ")", Env: env})
	}

	prompt := promptui.Select{
		Label: "Select an environment",
		Items: choices,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label }}",
			Selected: "{{ .Label | green }}",
		},
		Size: 10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("environment selection cancelled: %w", err)
	}
	return choices[index].Env, nil
}
