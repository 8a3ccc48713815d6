package quotaplan

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Plan is a named storage tier.
type Plan struct {
	Name        string `yaml:"name"`
	LimitBytes  int64  `yaml:"limit_bytes"`
	Description string `yaml:"description"`
}

type planFile struct {
	Plans []Plan `yaml:"plans"`
}

// Registry holds the storage plans loaded from the embedded YAML config.
type Registry struct {
	plans map[string]*Plan
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a plan registry and loads the embedded YAML file
func NewRegistry() (*Registry, error) {
	r := &Registry{
		plans: make(map[string]*Plan),
	}
	if err := r.loadFile("plans"); err != nil {
		return nil, fmt.Errorf("failed to load storage plans: %w", err)
	}
	return r, nil
}

// loadFile loads a plan YAML file into the registry
func (r *Registry) loadFile(name string) error {
	filename := fmt.Sprintf("config/%s.yaml", name)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range file.Plans {
		p := file.Plans[i]
		if p.Name == "" || p.LimitBytes <= 0 {
			return fmt.Errorf("invalid plan entry %q in %s", p.Name, filename)
		}
		if _, dup := r.plans[p.Name]; dup {
			return fmt.Errorf("duplicate plan %q in %s", p.Name, filename)
		}
		r.plans[p.Name] = &p
		r.order = append(r.order, p.Name)
	}
	return nil
}

// Get returns the plan with the given name.
func (r *Registry) Get(name string) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage plan: %s", name)
	}
	return p, nil
}

// List returns all plans in the order they are defined in the YAML.
func (r *Registry) List() []Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := make([]Plan, 0, len(r.order))
	for _, name := range r.order {
		plans = append(plans, *r.plans[name])
	}
	return plans
}
