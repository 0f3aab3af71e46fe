// Package roster loads team definitions from YAML or CUE files and builds
// per-game baseball teams from them.
//
// Every file is checked against the embedded CUE schema (schema.cue) before
// rate profiles are validated, so YAML and CUE sources share one set of
// structural rules. Names are NFC-normalized so visually identical names
// compare equal in event logs.
package roster

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/triple-play-labs/diamondx/internal/baseball"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed teams.yaml
var defaultTeams []byte

// ErrUnknownTeam is returned by Build for an id not in the roster.
var ErrUnknownTeam = errors.New("unknown team")

// File is the on-disk shape of a roster file.
type File struct {
	League *baseball.League   `json:"league,omitempty" yaml:"league,omitempty"`
	Teams  map[string]TeamDef `json:"teams" yaml:"teams"`
}

// TeamDef defines one team.
type TeamDef struct {
	Name    string       `json:"name" yaml:"name"`
	Lineup  []BatterDef  `json:"lineup" yaml:"lineup"`
	Starter PitcherDef   `json:"starter" yaml:"starter"`
	Bullpen []PitcherDef `json:"bullpen,omitempty" yaml:"bullpen,omitempty"`
}

// BatterDef defines one batter.
type BatterDef struct {
	Name  string         `json:"name" yaml:"name"`
	Rates baseball.Rates `json:"rates" yaml:"rates"`
}

// PitcherDef defines one pitcher. Zero limits take the baseball defaults.
type PitcherDef struct {
	Name             string         `json:"name" yaml:"name"`
	Rates            baseball.Rates `json:"rates" yaml:"rates"`
	Strikeout        float64        `json:"strikeout" yaml:"strikeout"`
	FatigueThreshold int            `json:"fatigue_threshold,omitempty" yaml:"fatigue_threshold,omitempty"`
	MaxPitches       int            `json:"max_pitches,omitempty" yaml:"max_pitches,omitempty"`
}

// Roster is a validated set of team definitions.
//
// A Roster is immutable and safe for concurrent use; Build hands out fresh
// Team values, so parallel games never share pitch counts or batting order.
type Roster struct {
	league baseball.League
	teams  map[string]TeamDef
}

// Default returns the built-in sample roster.
func Default() *Roster {
	r, err := LoadYAML(defaultTeams)
	if err != nil {
		panic(fmt.Sprintf("roster: built-in teams are invalid: %v", err))
	}
	return r
}

// LoadFile loads a roster from a .yaml, .yml, .json or .cue file.
func LoadFile(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(data, filepath.Base(path))
	case ".yaml", ".yml", ".json":
		return LoadYAML(data)
	default:
		return nil, fmt.Errorf("roster %s: unsupported file type (want .yaml, .yml, .json or .cue)", path)
	}
}

// LoadYAML decodes a roster from YAML (or JSON), rejecting unknown fields.
func LoadYAML(data []byte) (*Roster, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode roster yaml: %w", err)
	}

	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}
	if err := schema.Unify(ctx.Encode(f)).Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("roster schema: %w", err)
	}
	return newRoster(f)
}

// LoadCUE compiles a roster written in CUE. filename is used in error
// positions.
func LoadCUE(data []byte, filename string) (*Roster, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile roster cue: %w", err)
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("roster schema: %w", err)
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode roster cue: %w", err)
	}
	return newRoster(f)
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile roster schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#File")), nil
}

// newRoster normalizes names and checks every profile builds.
func newRoster(f File) (*Roster, error) {
	if len(f.Teams) == 0 {
		return nil, fmt.Errorf("roster: no teams defined")
	}

	league := baseball.DefaultLeague
	if f.League != nil {
		if err := f.League.Rates.Validate(); err != nil {
			return nil, fmt.Errorf("roster league: %w", err)
		}
		league = *f.League
	}

	teams := make(map[string]TeamDef, len(f.Teams))
	for id, def := range f.Teams {
		def = normalizeTeam(def)
		if _, err := buildTeam(def); err != nil {
			return nil, fmt.Errorf("roster team %s: %w", id, err)
		}
		teams[id] = def
	}
	return &Roster{league: league, teams: teams}, nil
}

func normalizeTeam(def TeamDef) TeamDef {
	out := def
	out.Name = normalizeName(def.Name)
	out.Lineup = make([]BatterDef, len(def.Lineup))
	for i, b := range def.Lineup {
		b.Name = normalizeName(b.Name)
		out.Lineup[i] = b
	}
	out.Starter.Name = normalizeName(def.Starter.Name)
	out.Bullpen = make([]PitcherDef, len(def.Bullpen))
	for i, p := range def.Bullpen {
		p.Name = normalizeName(p.Name)
		out.Bullpen[i] = p
	}
	return out
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// League returns the roster's league baseline (DefaultLeague when the file
// sets none).
func (r *Roster) League() baseball.League { return r.league }

// TeamIDs returns the team ids in sorted order.
func (r *Roster) TeamIDs() []string {
	ids := make([]string, 0, len(r.teams))
	for id := range r.teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definition returns the normalized definition of team id.
func (r *Roster) Definition(id string) (TeamDef, bool) {
	def, ok := r.teams[id]
	return def, ok
}

// Build returns a fresh team for id.
func (r *Roster) Build(id string) (*baseball.Team, error) {
	def, ok := r.teams[id]
	if !ok {
		return nil, fmt.Errorf("build %q: %w", id, ErrUnknownTeam)
	}
	return buildTeam(def)
}

// Matchup builds fresh home and away teams and pairs them in a game.
func (r *Roster) Matchup(homeID, awayID string) (*baseball.Game, error) {
	home, err := r.Build(homeID)
	if err != nil {
		return nil, err
	}
	away, err := r.Build(awayID)
	if err != nil {
		return nil, err
	}
	return baseball.NewGame(home, away, baseball.WithLeague(r.league))
}

func buildTeam(def TeamDef) (*baseball.Team, error) {
	lineup := make([]*baseball.Player, len(def.Lineup))
	for i, b := range def.Lineup {
		p, err := baseball.NewPlayer(b.Name, b.Rates)
		if err != nil {
			return nil, err
		}
		lineup[i] = p
	}

	starter, err := buildPitcher(def.Starter)
	if err != nil {
		return nil, err
	}
	bullpen := make([]*baseball.Pitcher, len(def.Bullpen))
	for i, pd := range def.Bullpen {
		p, err := buildPitcher(pd)
		if err != nil {
			return nil, err
		}
		bullpen[i] = p
	}
	return baseball.NewTeam(def.Name, lineup, starter, bullpen...)
}

func buildPitcher(def PitcherDef) (*baseball.Pitcher, error) {
	return baseball.NewPitcher(def.Name, def.Rates, def.Strikeout, def.FatigueThreshold, def.MaxPitches)
}
