package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/triple-play-labs/diamondx/internal/roster"
)

// TeamSummary describes one validated team.
type TeamSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Batters int    `json:"batters"`
	Starter string `json:"starter"`
	Bullpen int    `json:"bullpen"`
}

// RosterValidation is the result for one roster file.
type RosterValidation struct {
	Path  string        `json:"path"`
	Valid bool          `json:"valid"`
	Error string        `json:"error,omitempty"`
	Teams []TeamSummary `json:"teams,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool               `json:"valid"`
	Rosters []RosterValidation `json:"rosters"`
}

// RenderText prints one block per roster.
func (v ValidationResult) RenderText(w io.Writer) error {
	for _, r := range v.Rosters {
		if !r.Valid {
			fmt.Fprintf(w, "✗ %s\n  %s\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s (%d teams)\n", r.Path, len(r.Teams))
		for _, t := range r.Teams {
			fmt.Fprintf(w, "  %-10s %-24s %d batters, starter %s, %d in bullpen\n",
				t.ID, t.Name, t.Batters, t.Starter, t.Bullpen)
		}
	}
	return nil
}

// builtinRoster labels the embedded teams in validation output.
const builtinRoster = "(built-in)"

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [roster-file...]",
		Short: "Validate roster files",
		Long: `Validate team roster files without playing a game.

YAML and JSON files are decoded strictly (unknown fields are errors); CUE
files are unified with the roster schema. Every team is then built, so rate
and lineup problems are reported too. With no arguments the built-in teams
are validated.

Exit codes:
  0 - All rosters valid
  1 - One or more rosters invalid

Examples:
  diamondx validate
  diamondx validate ./teams.yaml ./league.cue --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true}
	if len(paths) == 0 {
		result.Rosters = append(result.Rosters, validateRoster(builtinRoster, roster.Default(), nil))
	}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		r, err := roster.LoadFile(path)
		result.Rosters = append(result.Rosters, validateRoster(path, r, err))
	}
	for _, r := range result.Rosters {
		result.Valid = result.Valid && r.Valid
	}

	if result.Valid {
		return formatter.Success(result)
	}
	if formatter.IsJSON() {
		if err := formatter.Error(ErrCodeInvalidRoster, "roster validation failed", result.Rosters); err != nil {
			return err
		}
	} else if err := formatter.Success(result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "roster validation failed")
}

func validateRoster(path string, r *roster.Roster, loadErr error) RosterValidation {
	if loadErr != nil {
		return RosterValidation{Path: path, Error: loadErr.Error()}
	}
	out := RosterValidation{Path: path, Valid: true}
	for _, id := range r.TeamIDs() {
		if _, err := r.Build(id); err != nil {
			return RosterValidation{Path: path, Error: err.Error()}
		}
		def, _ := r.Definition(id)
		out.Teams = append(out.Teams, TeamSummary{
			ID:      id,
			Name:    def.Name,
			Batters: len(def.Lineup),
			Starter: def.Starter.Name,
			Bullpen: len(def.Bullpen),
		})
	}
	return out
}
