// Package schema holds the runtime description of node, generic and profile
// kinds delivered by the backend's schema endpoint.
//
// The registry is populated once at startup (and replaced wholesale on
// schema-change notifications) and consumed by the column deriver, the query
// builders and the display resolver. A loaded Set is never mutated.
package schema

// AttributeKind is the value type of an attribute, as declared by the backend.
type AttributeKind string

const (
	KindText           AttributeKind = "Text"
	KindNumber         AttributeKind = "Number"
	KindBoolean        AttributeKind = "Boolean"
	KindDateTime       AttributeKind = "DateTime"
	KindTextArea       AttributeKind = "TextArea"
	KindJSON           AttributeKind = "JSON"
	KindList           AttributeKind = "List"
	KindDropdown       AttributeKind = "Dropdown"
	KindPassword       AttributeKind = "Password"
	KindHashedPassword AttributeKind = "HashedPassword"
	KindEmail          AttributeKind = "Email"
	KindURL            AttributeKind = "URL"
	KindColor          AttributeKind = "Color"
	KindMacAddress     AttributeKind = "MacAddress"
	KindIPHost         AttributeKind = "IPHost"
	KindIPNetwork      AttributeKind = "IPNetwork"
	KindBandwidth      AttributeKind = "Bandwidth"
	KindCheckbox       AttributeKind = "Checkbox"
	KindFile           AttributeKind = "File"
	KindAny            AttributeKind = "Any"
	KindID             AttributeKind = "ID"
)

// Cardinality says whether a relationship targets one or many peers.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// RelationshipKind classifies the role a relationship plays for its owner.
type RelationshipKind string

const (
	RelAttribute RelationshipKind = "Attribute"
	RelParent    RelationshipKind = "Parent"
	RelGeneric   RelationshipKind = "Generic"
	RelComponent RelationshipKind = "Component"
	RelGroup     RelationshipKind = "Group"
	RelHierarchy RelationshipKind = "Hierarchy"
	RelProfile   RelationshipKind = "Profile"
)

// Choice is one option of a Dropdown attribute.
type Choice struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Attribute describes a single attribute on a kind.
type Attribute struct {
	Name        string        `json:"name"`
	Kind        AttributeKind `json:"kind"`
	Label       string        `json:"label,omitempty"`
	Description string        `json:"description,omitempty"`
	OrderWeight int           `json:"order_weight"`
	Optional    bool          `json:"optional"`
	Unique      bool          `json:"unique"`
	ReadOnly    bool          `json:"read_only,omitempty"`
	Enum        []string      `json:"enum,omitempty"`
	Choices     []Choice      `json:"choices,omitempty"`
}

// Relationship describes an edge from a kind to a peer kind.
type Relationship struct {
	Name        string           `json:"name"`
	Peer        string           `json:"peer"`
	Cardinality Cardinality      `json:"cardinality"`
	Kind        RelationshipKind `json:"kind"`
	Label       string           `json:"label,omitempty"`
	Description string           `json:"description,omitempty"`
	OrderWeight int              `json:"order_weight"`
	Optional    bool             `json:"optional"`
	ReadOnly    bool             `json:"read_only,omitempty"`
}

// Paginated reports whether the relationship is fetched through an edge list.
func (r Relationship) Paginated() bool {
	return r.Cardinality == CardinalityMany
}

// NodeSchema is the description of one kind. Generic and profile kinds share
// the same shape; Generic or Profile is set accordingly and UsedBy lists the
// concrete kinds implementing a generic.
type NodeSchema struct {
	Kind          string         `json:"kind"`
	Name          string         `json:"name"`
	Namespace     string         `json:"namespace"`
	Label         string         `json:"label,omitempty"`
	Description   string         `json:"description,omitempty"`
	Attributes    []Attribute    `json:"attributes"`
	Relationships []Relationship `json:"relationships"`
	InheritFrom   []string       `json:"inherit_from,omitempty"`
	DisplayLabels []string       `json:"display_labels,omitempty"`
	UsedBy        []string       `json:"used_by,omitempty"`
	Generic       bool           `json:"-"`
	Profile       bool           `json:"-"`
}

// Attribute returns the attribute with the given name.
func (s *NodeSchema) Attribute(name string) (Attribute, bool) {
	if s == nil {
		return Attribute{}, false
	}
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Relationship returns the relationship with the given name.
func (s *NodeSchema) Relationship(name string) (Relationship, bool) {
	if s == nil {
		return Relationship{}, false
	}
	for _, r := range s.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	return Relationship{}, false
}

// DisplayName returns the label, falling back to the kind.
func (s *NodeSchema) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.Label != "" {
		return s.Label
	}
	return s.Kind
}
