package template

import "strconv"

// KeyValue is one entry of a keyvaluelist-typed Config value, bound to
// key/value inside an {{#each}} block.
type KeyValue struct {
	Key   string
	Value string
}

// Namespace is the variable binding set a render pass resolves
// placeholders against: the fixed Deployment-context fields plus the
// effective Config for that Deployment, split into plain string
// bindings and keyvaluelist bindings.
type Namespace struct {
	Fields map[string]string
	Lists  map[string][]KeyValue
}

// NewNamespace seeds a Namespace with the fixed fields every render
// context carries: organization, team, workload, deployment, host and
// ordinal.
func NewNamespace(organization, team, workload, deployment, host string, ordinal int) Namespace {
	return Namespace{
		Fields: map[string]string{
			"organization": organization,
			"team":         team,
			"workload":     workload,
			"deployment":   deployment,
			"host":         host,
			"ordinal":      strconv.Itoa(ordinal),
		},
		Lists: make(map[string][]KeyValue),
	}
}

func (ns Namespace) lookup(name string) (string, bool) {
	v, ok := ns.Fields[name]
	return v, ok
}

// withKV returns a copy of ns with "key" and "value" bound to item,
// used while expanding one iteration of an {{#each}} block. The copy
// keeps the surrounding namespace immutable across iterations.
func (ns Namespace) withKV(item KeyValue) Namespace {
	fields := make(map[string]string, len(ns.Fields)+2)
	for k, v := range ns.Fields {
		fields[k] = v
	}
	fields["key"] = item.Key
	fields["value"] = item.Value
	return Namespace{Fields: fields, Lists: ns.Lists}
}
