// Package types holds the shared platform types for Nimbus.
//
// Single-owner model: each instance has one owner and multiple
// collaborators. This is not a GitHub clone - it's a personal git platform.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Owner is the instance owner - there's only one per deployment.
type Owner struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	InstanceDomain string `json:"instance_domain"` // e.g. "code.example.dev"
}

// Collaborator can contribute but not create repositories.
type Collaborator struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	SSHKeys  []SSHKey   `json:"ssh_keys"`
	Tokens   []APIToken `json:"api_tokens"`
}

// Permission is the simple access model - no complex RBAC needed.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

// Repository belongs to the instance owner.
type Repository struct {
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"name"`
	Description   string                   `json:"description,omitempty"`
	IsPrivate     bool                     `json:"is_private"`
	DefaultBranch string                   `json:"default_branch"`
	Collaborators []CollaboratorPermission `json:"collaborator_permissions,omitempty"`
}

// CollaboratorPermission grants a collaborator access to one repository.
type CollaboratorPermission struct {
	CollaboratorID uuid.UUID  `json:"collaborator_id"`
	RepositoryID   uuid.UUID  `json:"repository_id"`
	Permission     Permission `json:"permission"`
}

// SSHKey is used for git operations.
type SSHKey struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PublicKey   string    `json:"public_key"`
	Fingerprint string    `json:"fingerprint"`
}

// APIToken is used for HTTPS git and API access. Only the hash is stored.
type APIToken struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	TokenHash string     `json:"token_hash"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Commit is a single commit carried inside push events.
type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	Author     string    `json:"author"`
	Timestamp  time.Time `json:"timestamp"`
	ParentSHAs []string  `json:"parent_shas,omitempty"`
}

// PluginType identifies a class of plugin in the extension system.
type PluginType string

const (
	PluginTypeCIRunner     PluginType = "ci_runner"
	PluginTypeReviewSystem PluginType = "review_system"
	PluginTypeAIReviewer   PluginType = "ai_reviewer"
)

// Plugin is a registered extension.
type Plugin struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	PluginType PluginType `json:"plugin_type"`
	Endpoint   string     `json:"endpoint,omitempty"`
}
