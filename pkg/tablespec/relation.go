package tablespec

import (
	"fmt"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/reflection"
)

// BelongsTo declares a relation where the parent row holds foreignKey
// pointing at ownerKey of table. path is the dotted relation path.
func BelongsTo(path, table, foreignKey, ownerKey string) common.RelationLink {
	return common.RelationLink{Name: path, Type: common.RelationBelongsTo, Table: table, ParentKey: foreignKey, RelatedKey: ownerKey}
}

// HasOne declares a relation where table holds foreignKey pointing at
// localKey of the parent row.
func HasOne(path, table, localKey, foreignKey string) common.RelationLink {
	return common.RelationLink{Name: path, Type: common.RelationHasOne, Table: table, ParentKey: localKey, RelatedKey: foreignKey}
}

// HasMany is HasOne yielding a collection.
func HasMany(path, table, localKey, foreignKey string) common.RelationLink {
	return common.RelationLink{Name: path, Type: common.RelationHasMany, Table: table, ParentKey: localKey, RelatedKey: foreignKey}
}

// ManyToMany declares a relation through the pivot joinTable:
// pivot.joinParentKey = parent.parentKey and table.relatedKey = pivot.joinRelatedKey.
func ManyToMany(path, table, joinTable, parentKey, joinParentKey, joinRelatedKey, relatedKey string) common.RelationLink {
	return common.RelationLink{
		Name:           path,
		Type:           common.RelationManyToMany,
		Table:          table,
		ParentKey:      parentKey,
		RelatedKey:     relatedKey,
		JoinTable:      joinTable,
		JoinParentKey:  joinParentKey,
		JoinRelatedKey: joinRelatedKey,
	}
}

func validateLink(path string, link common.RelationLink) error {
	if !common.IsValidIdentifier(path) {
		return fmt.Errorf("%w: relation path %q is not a valid identifier", ErrInvalidConfiguration, path)
	}
	switch link.Type {
	case common.RelationBelongsTo, common.RelationHasOne, common.RelationHasMany, common.RelationManyToMany:
	default:
		return fmt.Errorf("%w: relation %q has unknown type %q", ErrInvalidConfiguration, path, link.Type)
	}
	names := []string{link.Table, link.ParentKey, link.RelatedKey}
	if link.Type == common.RelationManyToMany {
		names = append(names, link.JoinTable, link.JoinParentKey, link.JoinRelatedKey)
	}
	for _, n := range names {
		if !common.IsValidIdentifier(n) {
			return fmt.Errorf("%w: relation %q uses invalid identifier %q", ErrInvalidConfiguration, path, n)
		}
	}
	return nil
}

// relationChain is a resolved relation path. Every hop gets the alias
// <prefix><segments joined by _>, so self references never clash.
type relationChain struct {
	path  []string
	links []common.RelationLink
}

func (c *relationChain) alias(i int, prefix string) string {
	return prefix + strings.Join(c.path[:i+1], "_")
}

// plural reports whether any hop yields a collection.
func (c *relationChain) plural() bool {
	for _, l := range c.links {
		if l.Type.Plural() {
			return true
		}
	}
	return false
}

// target is the alias of the last hop.
func (c *relationChain) target(prefix string) string {
	return c.alias(len(c.links)-1, prefix)
}

// source returns the FROM clause of the chain and the predicate correlating
// its first hop with the outer alias.
func (c *relationChain) source(outer, prefix string) (from, correlation string) {
	var b strings.Builder
	parent := outer
	for i, link := range c.links {
		a := c.alias(i, prefix)
		if link.Type == common.RelationManyToMany {
			pivot := a + "_pivot"
			pivotCond := fmt.Sprintf("%s.%s = %s.%s", pivot, link.JoinParentKey, parent, link.ParentKey)
			if i == 0 {
				fmt.Fprintf(&b, "%s %s", link.JoinTable, pivot)
				correlation = pivotCond
			} else {
				fmt.Fprintf(&b, " JOIN %s %s ON %s", link.JoinTable, pivot, pivotCond)
			}
			fmt.Fprintf(&b, " JOIN %s %s ON %s.%s = %s.%s", link.Table, a, a, link.RelatedKey, pivot, link.JoinRelatedKey)
		} else {
			cond := fmt.Sprintf("%s.%s = %s.%s", a, link.RelatedKey, parent, link.ParentKey)
			if i == 0 {
				fmt.Fprintf(&b, "%s %s", link.Table, a)
				correlation = cond
			} else {
				fmt.Fprintf(&b, " JOIN %s %s ON %s", link.Table, a, cond)
			}
		}
		parent = a
	}
	return b.String(), correlation
}

// exists wraps predicate, written against the target alias, in a relation
// existence subquery correlated with outer.
func (c *relationChain) exists(outer, prefix, predicate string) string {
	from, corr := c.source(outer, prefix)
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s AND %s)", from, corr, predicate)
}

// scalar selects attribute of the related row correlated with outer. Plural
// chains use the smallest value.
func (c *relationChain) scalar(outer, prefix, attribute string) string {
	from, corr := c.source(outer, prefix)
	col := c.target(prefix) + "." + attribute
	if c.plural() {
		return fmt.Sprintf("(SELECT MIN(%s) FROM %s WHERE %s)", col, from, corr)
	}
	return fmt.Sprintf("(SELECT %s FROM %s WHERE %s LIMIT 1)", col, from, corr)
}

// relationResolver resolves relation paths against the declared links and,
// for undeclared paths, the adapter's model inspection.
type relationResolver struct {
	def       *Definition
	inspector common.RelationInspector
	cache     map[string]*relationChain
}

func newRelationResolver(def *Definition, db common.Database) *relationResolver {
	r := &relationResolver{def: def, cache: map[string]*relationChain{}}
	if inspector, ok := db.(common.RelationInspector); ok {
		r.inspector = inspector
	}
	return r
}

func (r *relationResolver) chain(path []string) (*relationChain, error) {
	key := strings.Join(path, ".")
	if c, ok := r.cache[key]; ok {
		return c, nil
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("empty relation path")
	}

	links := make([]common.RelationLink, len(path))
	var inspected []common.RelationLink
	for i := range path {
		sub := strings.Join(path[:i+1], ".")
		if link, ok := r.def.relations[sub]; ok {
			links[i] = link
			continue
		}
		if inspected == nil {
			if r.inspector == nil || r.def.modelType == nil {
				return nil, fmt.Errorf("relation %s is not declared", sub)
			}
			var err error
			inspected, err = r.inspector.RelationPath(r.def.model, path)
			if err != nil {
				return nil, fmt.Errorf("relation %s: %w", sub, err)
			}
		}
		link := inspected[i]
		link.Name = sub
		if err := validateLink(sub, link); err != nil {
			return nil, err
		}
		links[i] = link
	}

	c := &relationChain{path: path, links: links}
	r.cache[key] = c
	return c, nil
}

// preloadPath maps a json relation path to the Go field path the ORM
// preloads, e.g. [department manager] -> Department.Manager.
func (r *relationResolver) preloadPath(path []string) (string, bool) {
	if c, err := r.chain(path); err == nil {
		fields := make([]string, 0, len(c.links))
		for _, l := range c.links {
			if l.Field == "" {
				fields = nil
				break
			}
			fields = append(fields, l.Field)
		}
		if fields != nil {
			return strings.Join(fields, "."), true
		}
	}
	return reflection.FieldPath(r.def.model, path)
}
