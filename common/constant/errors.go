// Package constant holds closed-set reason/action codes referenced by the
// error taxonomy and the AuthZ action table.
package constant

import "errors"

// Field-level validation sentinels.
var (
	ErrMetadataKeyLengthExceeded   = errors.New("metadata key exceeds maximum length")
	ErrMetadataValueLengthExceeded = errors.New("metadata value exceeds maximum length")
)

// Forbidden reason codes (AuthZ §4.3, spec §6 "details.reason").
const (
	ReasonNoRoleOnScope     = "no_role_on_scope"
	ReasonInsufficientRole  = "insufficient_role"
	ReasonCrossTenantDenied = "cross_tenant_denied"
	ReasonMFARequired       = "mfa_required"
	ReasonTenantMismatch    = "tenant_mismatch"
)

// Action identifiers used by the AuthZ action table (spec §4.3).
const (
	ActionEntityCreate        = "entity.create"
	ActionEntityUpdate        = "entity.update"
	ActionEntityDelete        = "entity.delete"
	ActionEntityRead          = "entity.read"
	ActionDependencyCreate    = "dependency.create"
	ActionDependencyUpdate    = "dependency.update"
	ActionDependencyDelete    = "dependency.delete"
	ActionOrganizationCreate  = "organization.create"
	ActionOrganizationUpdate  = "organization.update"
	ActionOrganizationReparent = "organization.reparent"
	ActionOrganizationDelete  = "organization.delete"
	ActionIdentityManage      = "identity.manage"
	ActionTenantConfig        = "tenant.config"
	ActionSyncConfig          = "sync.config"
	ActionLicensePolicy       = "license.policy"
	ActionResourceRoleGrant   = "resource_role.grant"
	ActionIssueWrite          = "issue.write"
	ActionIssueRead           = "issue.read"
	ActionOnCallRead          = "oncall.read"
	ActionOnCallWrite         = "oncall.write"
	ActionGroupRequest        = "group.request"
	ActionGroupDecide         = "group.decide"
	ActionGroupManage         = "group.manage"
	ActionAuditRead           = "audit.read"
	ActionAuditPurge          = "audit.purge"
	ActionSensitiveRead       = "resource.sensitive_read"
)
