package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// RelationPath derives relation links from the GORM schema of model.
// Each path segment is matched against the relation's json name first and
// its Go field name second.
func (g *GormAdapter) RelationPath(model interface{}, path []string) ([]common.RelationLink, error) {
	stmt := &gorm.Statement{DB: g.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parse model schema: %w", err)
	}

	current := stmt.Schema
	links := make([]common.RelationLink, 0, len(path))
	for _, name := range path {
		rel := findRelationship(current, name)
		if rel == nil {
			return nil, fmt.Errorf("relation %s not found on %s", name, current.Name)
		}
		link, err := linkFromRelationship(name, rel)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
		current = rel.FieldSchema
	}
	return links, nil
}

func findRelationship(s *schema.Schema, name string) *schema.Relationship {
	for _, rel := range s.Relationships.Relations {
		if jsonName(rel.Field) == name {
			return rel
		}
	}
	for _, rel := range s.Relationships.Relations {
		if strings.EqualFold(rel.Name, name) {
			return rel
		}
	}
	return nil
}

func jsonName(field *schema.Field) string {
	if field == nil {
		return ""
	}
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func linkFromRelationship(name string, rel *schema.Relationship) (common.RelationLink, error) {
	link := common.RelationLink{
		Name:  name,
		Field: rel.Name,
		Table: rel.FieldSchema.Table,
	}

	switch rel.Type {
	case schema.BelongsTo:
		link.Type = common.RelationBelongsTo
	case schema.HasOne:
		link.Type = common.RelationHasOne
	case schema.HasMany:
		link.Type = common.RelationHasMany
	case schema.Many2Many:
		link.Type = common.RelationManyToMany
	default:
		return link, fmt.Errorf("unsupported relation type %s for %s", rel.Type, name)
	}

	for _, ref := range rel.References {
		// polymorphic value references carry no join column pair
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			continue
		}
		switch {
		case rel.JoinTable != nil && ref.OwnPrimaryKey:
			link.ParentKey = ref.PrimaryKey.DBName
			link.JoinParentKey = ref.ForeignKey.DBName
		case rel.JoinTable != nil:
			link.RelatedKey = ref.PrimaryKey.DBName
			link.JoinRelatedKey = ref.ForeignKey.DBName
		case rel.Type == schema.BelongsTo:
			link.ParentKey = ref.ForeignKey.DBName
			link.RelatedKey = ref.PrimaryKey.DBName
		default:
			link.ParentKey = ref.PrimaryKey.DBName
			link.RelatedKey = ref.ForeignKey.DBName
		}
	}
	if rel.JoinTable != nil {
		link.JoinTable = rel.JoinTable.Table
	}

	if link.ParentKey == "" || link.RelatedKey == "" {
		return link, fmt.Errorf("relation %s has no usable join keys", name)
	}
	return link, nil
}

// modelType unwraps pointers and slices down to the struct type.
func modelType(model interface{}) reflect.Type {
	typ := reflect.TypeOf(model)
	for typ != nil && (typ.Kind() == reflect.Ptr || typ.Kind() == reflect.Slice) {
		typ = typ.Elem()
	}
	return typ
}
