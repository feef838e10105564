package common

// RelationType classifies how a related table joins to its parent.
type RelationType string

const (
	RelationBelongsTo  RelationType = "belongsTo"
	RelationHasOne     RelationType = "hasOne"
	RelationHasMany    RelationType = "hasMany"
	RelationManyToMany RelationType = "manyToMany"
)

// Plural reports whether the relation yields a collection.
func (t RelationType) Plural() bool {
	return t == RelationHasMany || t == RelationManyToMany
}

// RelationLink describes one hop from a parent table to a related table.
//
// The join condition is always related.RelatedKey = parent.ParentKey. For a
// many-to-many hop the pivot sits in between:
// pivot.JoinParentKey = parent.ParentKey and related.RelatedKey = pivot.JoinRelatedKey.
type RelationLink struct {
	Name           string       `json:"name"`
	Field          string       `json:"field,omitempty"`
	Type           RelationType `json:"type"`
	Table          string       `json:"table"`
	ParentKey      string       `json:"parent_key"`
	RelatedKey     string       `json:"related_key"`
	JoinTable      string       `json:"join_table,omitempty"`
	JoinParentKey  string       `json:"join_parent_key,omitempty"`
	JoinRelatedKey string       `json:"join_related_key,omitempty"`
}

// ActionRequest is the body posted to a table's action route.
type ActionRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	URL    string   `json:"url"`
}

// Response structures
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

type Metadata struct {
	RequestID string `json:"request_id,omitempty"`
	Table     string `json:"table,omitempty"`
	Count     int64  `json:"count"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}
