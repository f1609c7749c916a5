package executor

import (
	language "github.com/hanpama/silkweave/internal/language"
	schema "github.com/hanpama/silkweave/internal/schema"
)

// responseField is every node selected under one response name.
type responseField struct {
	name string
	// coordinate is Parent.field, used in messages.
	coordinate string
	nodes      []*language.Field
}

// collectFields flattens set for objectType in document order, merging
// nodes that share a response name. Fragments and directives are applied
// on the way.
func (ex *execution) collectFields(objectType *schema.Type, set language.SelectionSet) []responseField {
	var out []responseField
	index := make(map[string]int)
	visited := make(map[string]bool)

	var walk func(language.SelectionSet)
	walk = func(set language.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *language.Field:
				if !ex.included(sel.Directives) {
					continue
				}
				name := sel.Alias
				if name == "" {
					name = sel.Name
				}
				if i, ok := index[name]; ok {
					out[i].nodes = append(out[i].nodes, sel)
					continue
				}
				index[name] = len(out)
				out = append(out, responseField{
					name:       name,
					coordinate: objectType.Name + "." + sel.Name,
					nodes:      []*language.Field{sel},
				})
			case *language.InlineFragment:
				if ex.included(sel.Directives) && ex.applies(sel.TypeCondition, objectType) {
					walk(sel.SelectionSet)
				}
			case *language.FragmentSpread:
				if visited[sel.Name] || !ex.included(sel.Directives) {
					continue
				}
				visited[sel.Name] = true
				def := ex.doc.Fragments.ForName(sel.Name)
				if def == nil || !ex.included(def.Directives) || !ex.applies(def.TypeCondition, objectType) {
					continue
				}
				walk(def.SelectionSet)
			}
		}
	}
	walk(set)
	return out
}

// included evaluates @skip and @include.
func (ex *execution) included(directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && ex.directiveIf(d) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !ex.directiveIf(d) {
		return false
	}
	return true
}

func (ex *execution) directiveIf(d *language.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	b, _ := valueFromAST(arg.Value, ex.variables).(bool)
	return b
}

// applies reports whether a fragment on typeCondition selects fields of
// objectType.
func (ex *execution) applies(typeCondition string, objectType *schema.Type) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	return isPossibleType(ex.schema.Types[typeCondition], objectType)
}
