// Package ai chooses actions for participants that follow tactics instead of
// a player. A tactics domain is a hierarchical task network: methods break
// tasks into subtasks until only operators, which name combat actions, remain.
// Method preconditions are Lua hooks.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

var knownActions = map[combat.ActionKind]bool{
	combat.KindAttack: true, combat.KindCast: true, combat.KindDash: true,
	combat.KindDodge: true, combat.KindDisengage: true, combat.KindHide: true,
	combat.KindHelp: true, combat.KindReady: true, combat.KindUseObject: true,
}

// Task is a named goal; methods say how to pursue it.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method is one way to pursue TaskID: its Subtasks, in order, when the Lua
// hook named by Precondition returns true. An empty Precondition always holds.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"`
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a leaf of the network: one combat action and how to aim it.
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"` // a combat.ActionKind: "attack", "cast", "dodge", ...
	Target string `yaml:"target"` // "nearest_enemy", "weakest_enemy", "weakest_ally", "self", or a participant id
	Attack string `yaml:"attack"` // attack name for "attack"; empty = the profile's first attack
	Spell  string `yaml:"spell"`  // spell id for "cast"
	Object string `yaml:"object"` // object for "use-object"
	// Trigger is the free-text trigger for "ready".
	Trigger string `yaml:"trigger"`
}

// Domain is one tactics file. Planning always starts from RootTask.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// Validate checks the domain's structure.
//
// Postcondition: nil means the domain has an ID and at least one task; task,
// method, and operator IDs are non-empty and unique per kind; every method
// decomposes a declared task into at least one subtask naming a task or an
// operator; every operator's action is a combat action kind and every cast
// names a spell.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai.Domain: ID must not be empty")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("ai.Domain %q: must have at least one task", d.ID)
	}

	tasks, err := uniqueIDs(d.ID, "task", len(d.Tasks), func(i int) string { return d.Tasks[i].ID })
	if err != nil {
		return err
	}
	ops, err := uniqueIDs(d.ID, "operator", len(d.Operators), func(i int) string { return d.Operators[i].ID })
	if err != nil {
		return err
	}
	if _, err := uniqueIDs(d.ID, "method", len(d.Methods), func(i int) string { return d.Methods[i].ID }); err != nil {
		return err
	}

	for _, op := range d.Operators {
		switch kind := combat.ActionKind(op.Action); {
		case !knownActions[kind]:
			return fmt.Errorf("ai.Domain %q operator %q: unknown action %q", d.ID, op.ID, op.Action)
		case kind == combat.KindCast && op.Spell == "":
			return fmt.Errorf("ai.Domain %q operator %q: cast requires a spell", d.ID, op.ID)
		}
	}

	for _, m := range d.Methods {
		if !tasks[m.TaskID] {
			return fmt.Errorf("ai.Domain %q method %q: unknown task %q", d.ID, m.ID, m.TaskID)
		}
		if len(m.Subtasks) == 0 {
			return fmt.Errorf("ai.Domain %q method %q: subtasks must not be empty", d.ID, m.ID)
		}
		for _, sub := range m.Subtasks {
			if !tasks[sub] && !ops[sub] {
				return fmt.Errorf("ai.Domain %q method %q: subtask %q is neither a task nor an operator", d.ID, m.ID, sub)
			}
		}
	}
	return nil
}

// uniqueIDs collects n IDs of one kind, rejecting empty and repeated ones.
func uniqueIDs(domain, kind string, n int, id func(int) string) (map[string]bool, error) {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		v := id(i)
		if v == "" {
			return nil, fmt.Errorf("ai.Domain %q: %s %d has an empty ID", domain, kind, i)
		}
		if seen[v] {
			return nil, fmt.Errorf("ai.Domain %q: duplicate %s ID %q", domain, kind, v)
		}
		seen[v] = true
	}
	return seen, nil
}

// OperatorByID looks up an operator by ID.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	i := slices.IndexFunc(d.Operators, func(op *Operator) bool { return op.ID == id })
	if i < 0 {
		return nil, false
	}
	return d.Operators[i], true
}

// MethodsForTask returns taskID's methods in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

// LoadDomains parses and validates every *.yaml file in dir, in name order.
// Each file holds one domain under a top-level "domain" key; unknown keys are
// rejected.
//
// Postcondition: a directory with no YAML files yields (nil, nil).
func LoadDomains(dir string) ([]*Domain, error) {
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("ai.LoadDomains: reading %q: %w", dir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomains: %w", err)
	}
	var domains []*Domain
	for _, path := range paths {
		d, err := loadDomain(path)
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: %s: %w", filepath.Base(path), err)
		}
		domains = append(domains, d)
	}
	return domains, nil
}

func loadDomain(path string) (*Domain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc struct {
		Domain *Domain `yaml:"domain"`
	}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Domain == nil {
		return nil, errors.New("missing top-level 'domain' key")
	}
	if err := doc.Domain.Validate(); err != nil {
		return nil, err
	}
	return doc.Domain, nil
}
