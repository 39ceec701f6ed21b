package repository

import (
	"gorm.io/gorm"
)

// Repositories bundles every repository over one database handle
type Repositories struct {
	Tags                  TagRepository
	Tenants               TenantRepository
	Organizations         OrganizationRepository
	Environments          EnvironmentRepository
	Workflows             WorkflowRepository
	Tickets               TicketRepository
	AlertTriggers         AlertTriggerRepository
	Licenses              LicenseRepository
	Pages                 PageRepository
	PortalPages           PortalPageRepository
	PortalMenuLinks       PortalMenuLinkRepository
	PortalNavigationItems PortalNavigationItemRepository
	SubscriptionForms     SubscriptionFormRepository
	AsyncJobs             AsyncJobRepository
	Flows                 FlowRepository
	Dashboards            DashboardRepository
	Themes                ThemeRepository
	Metadata              MetadataRepository
	ApiCategoryOrders     ApiCategoryOrderRepository
	ApiQualityRules       ApiQualityRuleRepository
	Events                EventRepository
	NodeMonitoring        NodeMonitoringRepository
}

// NewGormRepositories builds the full set on db. Pass a transaction handle to
// get repositories that all write inside that transaction.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tags:                  NewGormTagRepository(db),
		Tenants:               NewGormTenantRepository(db),
		Organizations:         NewGormOrganizationRepository(db),
		Environments:          NewGormEnvironmentRepository(db),
		Workflows:             NewGormWorkflowRepository(db),
		Tickets:               NewGormTicketRepository(db),
		AlertTriggers:         NewGormAlertTriggerRepository(db),
		Licenses:              NewGormLicenseRepository(db),
		Pages:                 NewGormPageRepository(db),
		PortalPages:           NewGormPortalPageRepository(db),
		PortalMenuLinks:       NewGormPortalMenuLinkRepository(db),
		PortalNavigationItems: NewGormPortalNavigationItemRepository(db),
		SubscriptionForms:     NewGormSubscriptionFormRepository(db),
		AsyncJobs:             NewGormAsyncJobRepository(db),
		Flows:                 NewGormFlowRepository(db),
		Dashboards:            NewGormDashboardRepository(db),
		Themes:                NewGormThemeRepository(db),
		Metadata:              NewGormMetadataRepository(db),
		ApiCategoryOrders:     NewGormApiCategoryOrderRepository(db),
		ApiQualityRules:       NewGormApiQualityRuleRepository(db),
		Events:                NewGormEventRepository(db),
		NodeMonitoring:        NewGormNodeMonitoringRepository(db),
	}
}

// Compile-time interface checks
var (
	_ TagRepository                  = (*GormTagRepository)(nil)
	_ TenantRepository               = (*GormTenantRepository)(nil)
	_ OrganizationRepository         = (*GormOrganizationRepository)(nil)
	_ EnvironmentRepository          = (*GormEnvironmentRepository)(nil)
	_ WorkflowRepository             = (*GormWorkflowRepository)(nil)
	_ TicketRepository               = (*GormTicketRepository)(nil)
	_ AlertTriggerRepository         = (*GormAlertTriggerRepository)(nil)
	_ LicenseRepository              = (*GormLicenseRepository)(nil)
	_ PageRepository                 = (*GormPageRepository)(nil)
	_ PortalPageRepository           = (*GormPortalPageRepository)(nil)
	_ PortalMenuLinkRepository       = (*GormPortalMenuLinkRepository)(nil)
	_ PortalNavigationItemRepository = (*GormPortalNavigationItemRepository)(nil)
	_ SubscriptionFormRepository     = (*GormSubscriptionFormRepository)(nil)
	_ AsyncJobRepository             = (*GormAsyncJobRepository)(nil)
	_ FlowRepository                 = (*GormFlowRepository)(nil)
	_ DashboardRepository            = (*GormDashboardRepository)(nil)
	_ ThemeRepository                = (*GormThemeRepository)(nil)
	_ MetadataRepository             = (*GormMetadataRepository)(nil)
	_ ApiCategoryOrderRepository     = (*GormApiCategoryOrderRepository)(nil)
	_ ApiQualityRuleRepository       = (*GormApiQualityRuleRepository)(nil)
	_ EventRepository                = (*GormEventRepository)(nil)
	_ NodeMonitoringRepository       = (*GormNodeMonitoringRepository)(nil)
)
