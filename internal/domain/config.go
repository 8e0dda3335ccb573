package domain

// BatchTypeConfig is read-only reference data describing one production step
type BatchTypeConfig struct {
	Type         BatchType   `json:"type" bson:"type"`
	LeadTimeDays int         `json:"leadTimeDays" bson:"leadTimeDays"`
	DependsOn    []BatchType `json:"dependsOn,omitempty" bson:"dependsOn,omitempty"`
	Batchable    bool        `json:"batchable" bson:"batchable"` // may combine multiple orders
	Color        string      `json:"color,omitempty" bson:"color,omitempty"`
}

// BatchTypeConfigProvider supplies batch-type reference data
type BatchTypeConfigProvider interface {
	Get(batchType BatchType) (BatchTypeConfig, bool)
	All() []BatchTypeConfig
}

// StaticConfigProvider is a BatchTypeConfigProvider backed by a fixed list
type StaticConfigProvider struct {
	configs map[BatchType]BatchTypeConfig
	order   []BatchType
}

// NewStaticConfigProvider creates a provider from a list of configs
func NewStaticConfigProvider(configs []BatchTypeConfig) *StaticConfigProvider {
	p := &StaticConfigProvider{
		configs: make(map[BatchType]BatchTypeConfig, len(configs)),
		order:   make([]BatchType, 0, len(configs)),
	}
	for _, c := range configs {
		if _, exists := p.configs[c.Type]; !exists {
			p.order = append(p.order, c.Type)
		}
		p.configs[c.Type] = c
	}
	return p
}

func (p *StaticConfigProvider) Get(batchType BatchType) (BatchTypeConfig, bool) {
	c, ok := p.configs[batchType]
	return c, ok
}

func (p *StaticConfigProvider) All() []BatchTypeConfig {
	out := make([]BatchTypeConfig, 0, len(p.order))
	for _, t := range p.order {
		out = append(out, p.configs[t])
	}
	return out
}

// DefaultBatchTypeConfigs returns the standard production steps
func DefaultBatchTypeConfigs() []BatchTypeConfig {
	return []BatchTypeConfig{
		{Type: BatchTypeBake, LeadTimeDays: 2, Batchable: true, Color: "#e8a04c"},
		{Type: BatchTypePrep, LeadTimeDays: 1, Batchable: true, Color: "#7fb5d6"},
		{Type: BatchTypeStack, LeadTimeDays: 1, DependsOn: []BatchType{BatchTypeBake, BatchTypePrep}, Batchable: false, Color: "#9b8ec4"},
		{Type: BatchTypeAssemble, LeadTimeDays: 0, DependsOn: []BatchType{BatchTypeStack}, Batchable: false, Color: "#80ba8a"},
		{Type: BatchTypeDecorate, LeadTimeDays: 0, DependsOn: []BatchType{BatchTypeAssemble}, Batchable: false, Color: "#d98aa3"},
	}
}

var typePriority = map[BatchType]int{
	BatchTypeBake:     0,
	BatchTypePrep:     1,
	BatchTypeStack:    2,
	BatchTypeAssemble: 3,
	BatchTypeDecorate: 4,
}

// TypePriority returns the fixed ordering priority of a batch type, used to
// break ties when sorting candidate groups. Unknown (custom) types sort last.
func TypePriority(t BatchType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return len(typePriority)
}
