package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/identity"
	"github.com/qrdeck/qrdeck/internal/model"
)

// completeProjects returns project keys from the local cache. It never
// contacts the project service.
func completeProjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ctx == nil || ctx.CacheRepo == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cache, err := ctx.CacheRepo.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return projectCompletions(cache.Projects, ctx.Resolver.Strategy(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// projectCompletions formats key<TAB>description pairs for projects whose
// key starts with prefix.
func projectCompletions(projects []model.Project, strategy identity.Strategy, prefix string) []string {
	var completions []string
	for _, p := range projects {
		key := p.ID
		if strategy == identity.StrategyDerived {
			key = p.Key().Composite()
		}
		if key == "" || !strings.HasPrefix(key, prefix) {
			continue
		}
		completions = append(completions, key+"\t"+p.Name)
	}
	return completions
}

// completeProjectArgs handles completion for commands that take a project KEY.
func completeProjectArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Only complete first argument
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeProjects(cmd, args, toComplete)
}
