// Package models defines the GORM rows of the management datastore. Every model
// works across PostgreSQL, MySQL, SQL Server, SQLite and Oracle through GORM's
// dialect abstraction and the portable column types in types.go.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamps are written exactly as supplied by the caller, so the automatic
// create/update tracking GORM applies to CreatedAt/UpdatedAt is disabled throughout.

// Tag labels APIs inside an organization or environment scope
type Tag struct {
	ID               string      `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name             string      `gorm:"column:name;type:varchar(255);not null"`
	Description      string      `gorm:"column:description;type:varchar(1024)"`
	RestrictedGroups StringArray `gorm:"column:restricted_groups"`
	ReferenceID      string      `gorm:"column:reference_id;type:varchar(64);not null;index:idx_tags_reference"`
	ReferenceType    string      `gorm:"column:reference_type;type:varchar(32);not null;index:idx_tags_reference"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string { return "tags" }

// Tenant identifies a gateway tenant inside an organization or environment scope
type Tenant struct {
	ID            string `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name          string `gorm:"column:name;type:varchar(255);not null"`
	Description   string `gorm:"column:description;type:varchar(1024)"`
	ReferenceID   string `gorm:"column:reference_id;type:varchar(64);not null;index:idx_tenants_reference"`
	ReferenceType string `gorm:"column:reference_type;type:varchar(32);not null;index:idx_tenants_reference"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string { return "tenants" }

// Organization is the top-level tenant of the platform
type Organization struct {
	ID          string      `gorm:"column:id;primaryKey;type:varchar(64)"`
	CockpitID   *string     `gorm:"column:cockpit_id;type:varchar(64);index"`
	Hrids       StringArray `gorm:"column:hrids"`
	Name        string      `gorm:"column:name;type:varchar(255);not null"`
	Description string      `gorm:"column:description;type:varchar(1024)"`
	FlowMode    string      `gorm:"column:flow_mode;type:varchar(32)"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string { return "organizations" }

// Environment belongs to one organization
type Environment struct {
	ID                 string      `gorm:"column:id;primaryKey;type:varchar(64)"`
	CockpitID          *string     `gorm:"column:cockpit_id;type:varchar(64);index"`
	Hrids              StringArray `gorm:"column:hrids"`
	Name               string      `gorm:"column:name;type:varchar(255);not null"`
	Description        string      `gorm:"column:description;type:varchar(1024)"`
	OrganizationID     string      `gorm:"column:organization_id;type:varchar(64);not null;index"`
	DomainRestrictions StringArray `gorm:"column:domain_restrictions"`
}

// TableName specifies the table name for Environment
func (Environment) TableName() string { return "environments" }

// Workflow records a review state transition of a referenced object
type Workflow struct {
	ID            string    `gorm:"column:id;primaryKey;type:varchar(64)"`
	ReferenceType string    `gorm:"column:reference_type;type:varchar(32);not null;index:idx_workflows_reference"`
	ReferenceID   string    `gorm:"column:reference_id;type:varchar(64);not null;index:idx_workflows_reference"`
	Type          string    `gorm:"column:type;type:varchar(32);not null"`
	State         string    `gorm:"column:state;type:varchar(32);not null"`
	Comment       string    `gorm:"column:comment;type:varchar(1024)"`
	User          string    `gorm:"column:user_id;type:varchar(64)"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime:false"`
}

// TableName specifies the table name for Workflow
func (Workflow) TableName() string { return "workflows" }

// BeforeCreate generates an identifier if not set
func (w *Workflow) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Ticket is a support request raised from the portal
type Ticket struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	Subject       string     `gorm:"column:subject;type:varchar(255);not null"`
	Content       DBText     `gorm:"column:content"`
	FromUser      string     `gorm:"column:from_user;type:varchar(64);not null;index"`
	API           *string    `gorm:"column:api;type:varchar(64)"`
	Application   *string    `gorm:"column:application;type:varchar(64)"`
	EnvironmentID string     `gorm:"column:environment_id;type:varchar(64);index"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for Ticket
func (Ticket) TableName() string { return "tickets" }

// AlertTrigger is an alert definition attached to a reference
type AlertTrigger struct {
	ID            string      `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name          string      `gorm:"column:name;type:varchar(255);not null"`
	Description   string      `gorm:"column:description;type:varchar(1024)"`
	ReferenceType string      `gorm:"column:reference_type;type:varchar(32);not null;index:idx_alert_triggers_reference"`
	ReferenceID   string      `gorm:"column:reference_id;type:varchar(64);not null;index:idx_alert_triggers_reference"`
	Type          string      `gorm:"column:type;type:varchar(64)"`
	Severity      string      `gorm:"column:severity;type:varchar(32)"`
	Definition    DBText      `gorm:"column:definition"`
	EventRules    StringArray `gorm:"column:event_rules"`
	Enabled       DBBool      `gorm:"column:enabled"`
	Template      DBBool      `gorm:"column:template"`
	EnvironmentID string      `gorm:"column:environment_id;type:varchar(64);index"`
	CreatedAt     *time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for AlertTrigger
func (AlertTrigger) TableName() string { return "alert_triggers" }

// License is keyed by its owning reference; at most one per reference
type License struct {
	ReferenceID   string     `gorm:"column:reference_id;primaryKey;type:varchar(64)"`
	ReferenceType string     `gorm:"column:reference_type;primaryKey;type:varchar(32)"`
	License       DBText     `gorm:"column:license"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for License
func (License) TableName() string { return "licenses" }

// Page is a documentation page of an API or environment portal
type Page struct {
	ID                     string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	ReferenceID            string     `gorm:"column:reference_id;type:varchar(64);not null;index:idx_pages_reference"`
	ReferenceType          string     `gorm:"column:reference_type;type:varchar(32);not null;index:idx_pages_reference"`
	Name                   string     `gorm:"column:name;type:varchar(255);not null"`
	Type                   string     `gorm:"column:type;type:varchar(32);not null"`
	Content                DBText     `gorm:"column:content"`
	LastContributor        string     `gorm:"column:last_contributor;type:varchar(64)"`
	Position               int        `gorm:"column:position;not null;default:0"`
	Published              DBBool     `gorm:"column:published"`
	Visibility             string     `gorm:"column:visibility;type:varchar(32)"`
	Homepage               DBBool     `gorm:"column:homepage"`
	ParentID               *string    `gorm:"column:parent_id;type:varchar(64);index"`
	UseAutoFetch           *DBBool    `gorm:"column:use_auto_fetch"`
	ExcludedAccessControls DBBool     `gorm:"column:excluded_access_controls"`
	Configuration          StringMap  `gorm:"column:configuration"`
	CreatedAt              *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt              *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for Page
func (Page) TableName() string { return "pages" }

// PortalPage is a page of the next-generation developer portal
type PortalPage struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	EnvironmentID string     `gorm:"column:environment_id;type:varchar(64);not null;index"`
	Name          string     `gorm:"column:name;type:varchar(255)"`
	Content       DBText     `gorm:"column:content"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for PortalPage
func (PortalPage) TableName() string { return "portal_pages" }

// PortalMenuLink is a custom link shown in the portal header
type PortalMenuLink struct {
	ID            string `gorm:"column:id;primaryKey;type:varchar(64)"`
	EnvironmentID string `gorm:"column:environment_id;type:varchar(64);not null;index"`
	Name          string `gorm:"column:name;type:varchar(255);not null"`
	Type          string `gorm:"column:type;type:varchar(32);not null"`
	Target        string `gorm:"column:target;type:varchar(1024)"`
	Visibility    string `gorm:"column:visibility;type:varchar(32);not null"`
	Position      int    `gorm:"column:position;not null;default:0"`
}

// TableName specifies the table name for PortalMenuLink
func (PortalMenuLink) TableName() string { return "portal_menu_links" }

// PortalNavigationItem is a node of the portal navigation tree
type PortalNavigationItem struct {
	ID             string    `gorm:"column:id;primaryKey;type:varchar(64)"`
	OrganizationID string    `gorm:"column:organization_id;type:varchar(64);not null;index"`
	EnvironmentID  string    `gorm:"column:environment_id;type:varchar(64);not null;index"`
	Title          string    `gorm:"column:title;type:varchar(255);not null"`
	Type           string    `gorm:"column:type;type:varchar(32);not null"`
	Area           string    `gorm:"column:area;type:varchar(32);not null"`
	ParentID       *string   `gorm:"column:parent_id;type:varchar(64);index"`
	Position       int       `gorm:"column:position;not null;default:0"`
	Configuration  StringMap `gorm:"column:configuration"`
}

// TableName specifies the table name for PortalNavigationItem
func (PortalNavigationItem) TableName() string { return "portal_navigation_items" }

// SubscriptionForm is the form shown to consumers when subscribing; one per environment
type SubscriptionForm struct {
	ID            string `gorm:"column:id;primaryKey;type:varchar(64)"`
	EnvironmentID string `gorm:"column:environment_id;type:varchar(64);not null;uniqueIndex"`
	GmdContent    DBText `gorm:"column:gmd_content"`
	Enabled       DBBool `gorm:"column:enabled"`
}

// TableName specifies the table name for SubscriptionForm
func (SubscriptionForm) TableName() string { return "subscription_forms" }

// AsyncJob tracks a long-running operation started against a source object
type AsyncJob struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	SourceID      string     `gorm:"column:source_id;type:varchar(64);not null;index"`
	EnvironmentID string     `gorm:"column:environment_id;type:varchar(64);not null;index"`
	InitiatorID   string     `gorm:"column:initiator_id;type:varchar(64)"`
	Type          string     `gorm:"column:type;type:varchar(64);not null"`
	Status        string     `gorm:"column:status;type:varchar(32);not null;index"`
	ErrorMessage  *string    `gorm:"column:error_message;type:varchar(1024)"`
	DeadLine      *time.Time `gorm:"column:dead_line"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for AsyncJob
func (AsyncJob) TableName() string { return "async_jobs" }

// Flow is an ordered policy flow attached to a reference
type Flow struct {
	ID            string      `gorm:"column:id;primaryKey;type:varchar(64)"`
	ReferenceType string      `gorm:"column:reference_type;type:varchar(32);not null;index:idx_flows_reference"`
	ReferenceID   string      `gorm:"column:reference_id;type:varchar(64);not null;index:idx_flows_reference"`
	Name          string      `gorm:"column:name;type:varchar(255)"`
	Path          string      `gorm:"column:path;type:varchar(1024)"`
	Condition     string      `gorm:"column:flow_condition;type:varchar(1024)"`
	Enabled       DBBool      `gorm:"column:enabled"`
	Position      int         `gorm:"column:position;not null;default:0"`
	Steps         DBText      `gorm:"column:steps"`
	Tags          StringArray `gorm:"column:tags"`
	CreatedAt     *time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for Flow
func (Flow) TableName() string { return "flows" }

// Dashboard is an analytics dashboard definition
type Dashboard struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	ReferenceType string     `gorm:"column:reference_type;type:varchar(32);not null;index:idx_dashboards_reference"`
	ReferenceID   string     `gorm:"column:reference_id;type:varchar(64);not null;index:idx_dashboards_reference"`
	Type          string     `gorm:"column:type;type:varchar(32);not null"`
	Name          string     `gorm:"column:name;type:varchar(255);not null"`
	QueryFilter   string     `gorm:"column:query_filter;type:varchar(1024)"`
	Position      int        `gorm:"column:position;not null;default:0"`
	Enabled       DBBool     `gorm:"column:enabled"`
	Definition    DBText     `gorm:"column:definition"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for Dashboard
func (Dashboard) TableName() string { return "dashboards" }

// Theme is a portal theme definition
type Theme struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	ReferenceType string     `gorm:"column:reference_type;type:varchar(32);not null;index:idx_themes_reference"`
	ReferenceID   string     `gorm:"column:reference_id;type:varchar(64);not null;index:idx_themes_reference"`
	Type          string     `gorm:"column:type;type:varchar(32);not null"`
	Name          string     `gorm:"column:name;type:varchar(255);not null"`
	Enabled       DBBool     `gorm:"column:enabled"`
	Definition    DBText     `gorm:"column:definition"`
	Logo          DBText     `gorm:"column:logo"`
	Favicon       DBText     `gorm:"column:favicon"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for Theme
func (Theme) TableName() string { return "themes" }

// Metadata is a key/value attribute keyed by (key, reference)
type Metadata struct {
	Key           string     `gorm:"column:metadata_key;primaryKey;type:varchar(64)"`
	ReferenceID   string     `gorm:"column:reference_id;primaryKey;type:varchar(64)"`
	ReferenceType string     `gorm:"column:reference_type;primaryKey;type:varchar(32)"`
	Name          string     `gorm:"column:name;type:varchar(255);not null"`
	Format        string     `gorm:"column:format;type:varchar(32);not null"`
	Value         DBText     `gorm:"column:value"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for Metadata
func (Metadata) TableName() string { return "metadata" }

// ApiCategoryOrder positions an API inside a category listing
type ApiCategoryOrder struct {
	ApiID      string `gorm:"column:api_id;primaryKey;type:varchar(64)"`
	CategoryID string `gorm:"column:category_id;primaryKey;type:varchar(64);index"`
	Position   int    `gorm:"column:position;not null;default:0"`
}

// TableName specifies the table name for ApiCategoryOrder
func (ApiCategoryOrder) TableName() string { return "api_category_orders" }

// ApiQualityRule records whether an API satisfies a quality rule
type ApiQualityRule struct {
	API         string     `gorm:"column:api;primaryKey;type:varchar(64)"`
	QualityRule string     `gorm:"column:quality_rule;primaryKey;type:varchar(64);index"`
	Checked     DBBool     `gorm:"column:checked"`
	CreatedAt   *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for ApiQualityRule
func (ApiQualityRule) TableName() string { return "api_quality_rules" }

// Event is a platform event; ids are UUIDv7 so lexical order is creation order
type Event struct {
	ID        string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	Type      string     `gorm:"column:type;type:varchar(64);not null;index"`
	Payload   DBText     `gorm:"column:payload"`
	ParentID  *string    `gorm:"column:parent_id;type:varchar(64)"`
	CreatedAt *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"column:updated_at;autoUpdateTime:false;index"`

	Properties   []EventProperty    `gorm:"foreignKey:EventID;references:ID"`
	Environments []EventEnvironment `gorm:"foreignKey:EventID;references:ID"`
}

// TableName specifies the table name for Event
func (Event) TableName() string { return "events" }

// BeforeCreate assigns a time-ordered identifier if not set
func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id.String()
	}
	return nil
}

// EventProperty is one key/value property of an event
type EventProperty struct {
	EventID string `gorm:"column:event_id;primaryKey;type:varchar(64)"`
	Key     string `gorm:"column:property_key;primaryKey;type:varchar(128);index:idx_event_properties_kv"`
	Value   string `gorm:"column:property_value;type:varchar(1024);index:idx_event_properties_kv"`
}

// TableName specifies the table name for EventProperty
func (EventProperty) TableName() string { return "event_properties" }

// EventEnvironment links an event to one environment it applies to
type EventEnvironment struct {
	EventID       string `gorm:"column:event_id;primaryKey;type:varchar(64)"`
	EnvironmentID string `gorm:"column:environment_id;primaryKey;type:varchar(64);index"`
}

// TableName specifies the table name for EventEnvironment
func (EventEnvironment) TableName() string { return "event_environments" }

// NodeMonitoring is the latest monitoring sample reported by a gateway node
type NodeMonitoring struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	NodeID        string     `gorm:"column:node_id;type:varchar(64);not null;index:idx_node_monitoring_node"`
	Type          string     `gorm:"column:type;type:varchar(32);not null;index:idx_node_monitoring_node"`
	EnvironmentID string     `gorm:"column:environment_id;type:varchar(64);index"`
	Payload       DBText     `gorm:"column:payload"`
	CreatedAt     *time.Time `gorm:"column:created_at;autoCreateTime:false"`
	EvaluatedAt   *time.Time `gorm:"column:evaluated_at"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false;index"`
}

// TableName specifies the table name for NodeMonitoring
func (NodeMonitoring) TableName() string { return "node_monitoring" }

// BeforeCreate generates an identifier if not set
func (n *NodeMonitoring) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// AllModels returns every model in migration order
func AllModels() []any {
	return []any{
		&Organization{},
		&Environment{},
		&Tag{},
		&Tenant{},
		&Workflow{},
		&Ticket{},
		&AlertTrigger{},
		&License{},
		&Page{},
		&PortalPage{},
		&PortalMenuLink{},
		&PortalNavigationItem{},
		&SubscriptionForm{},
		&AsyncJob{},
		&Flow{},
		&Dashboard{},
		&Theme{},
		&Metadata{},
		&ApiCategoryOrder{},
		&ApiQualityRule{},
		&Event{},
		&EventProperty{},
		&EventEnvironment{},
		&NodeMonitoring{},
	}
}

// TableNames returns the table of every model, children before parents, for truncation
func TableNames() []string {
	all := AllModels()
	names := make([]string, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if t, ok := all[i].(interface{ TableName() string }); ok {
			names = append(names, t.TableName())
		}
	}
	return names
}
