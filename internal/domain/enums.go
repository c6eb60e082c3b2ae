package domain

// NodeType is the closed set of catalog node kinds.
type NodeType string

const (
	TypeFolder         NodeType = "folder"
	TypeBucket         NodeType = "bucket"
	TypeItemFolder     NodeType = "itemFolder"
	TypeItem           NodeType = "item"
	TypeTemplateFolder NodeType = "templateFolder"
	TypeTemplate       NodeType = "template"
)

// Catalog separates the content hierarchy from the template catalog. Root
// nodes are ordered per catalog.
type Catalog string

const (
	CatalogContent   Catalog = "content"
	CatalogTemplates Catalog = "templates"
)

// ValidNodeTypes is the canonical set of accepted node type strings.
var ValidNodeTypes = map[string]bool{
	"folder": true, "bucket": true, "itemFolder": true, "item": true,
	"templateFolder": true, "template": true,
}

// NameScope selects the population a node's name must be unique in.
type NameScope int

const (
	ScopeSiblings NameScope = iota
	ScopeRoot
	ScopeGlobal
)
