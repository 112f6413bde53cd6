package columns

import "github.com/matthewbaird/infraview/internal/schema"

// KindSet is a set of relationship kinds allowed for one cardinality.
type KindSet map[schema.RelationshipKind]bool

// Rules are the allow- and deny-lists that decide which attributes and
// relationships appear in which view. Kind matching is exact and
// case-sensitive.
type Rules struct {
	// ListAttributeKinds is the allow-list of attribute kinds shown in list views.
	ListAttributeKinds map[schema.AttributeKind]bool
	// DetailExcludedAttributeKinds is the deny-list for detail views.
	DetailExcludedAttributeKinds map[schema.AttributeKind]bool

	ListRelationships   map[schema.Cardinality]KindSet
	DetailRelationships map[schema.Cardinality]KindSet
	TabRelationships    map[schema.Cardinality]KindSet
}

// DefaultRules returns the rules used by the console.
func DefaultRules() Rules {
	return Rules{
		ListAttributeKinds: attrKinds(
			schema.KindText,
			schema.KindNumber,
			schema.KindBoolean,
			schema.KindDropdown,
			schema.KindDateTime,
			schema.KindEmail,
			schema.KindURL,
			schema.KindColor,
			schema.KindMacAddress,
			schema.KindIPHost,
			schema.KindIPNetwork,
			schema.KindBandwidth,
			schema.KindCheckbox,
			schema.KindList,
			schema.KindID,
		),
		DetailExcludedAttributeKinds: attrKinds(schema.KindHashedPassword),
		ListRelationships: map[schema.Cardinality]KindSet{
			schema.CardinalityOne:  relKinds(schema.RelAttribute, schema.RelParent, schema.RelGeneric),
			schema.CardinalityMany: relKinds(schema.RelAttribute),
		},
		DetailRelationships: map[schema.Cardinality]KindSet{
			schema.CardinalityOne:  relKinds(schema.RelAttribute, schema.RelParent, schema.RelGeneric, schema.RelComponent, schema.RelGroup),
			schema.CardinalityMany: relKinds(schema.RelAttribute, schema.RelGeneric, schema.RelGroup),
		},
		TabRelationships: map[schema.Cardinality]KindSet{
			schema.CardinalityMany: relKinds(schema.RelGeneric, schema.RelComponent),
		},
	}
}

func (r Rules) relationshipAllowed(table map[schema.Cardinality]KindSet, rel schema.Relationship) bool {
	if rel.Cardinality == "" {
		return false
	}
	kinds, ok := table[rel.Cardinality]
	if !ok {
		return false
	}
	return kinds[rel.Kind]
}

func attrKinds(kinds ...schema.AttributeKind) map[schema.AttributeKind]bool {
	m := make(map[schema.AttributeKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

func relKinds(kinds ...schema.RelationshipKind) KindSet {
	m := make(KindSet, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}
