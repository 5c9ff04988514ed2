package gamesvc

import (
	"io"
	"time"
)

// ResourceError is the error state the management API attaches to a resource
// whose last operation failed.
type ResourceError struct {
	HTTPCode     string `json:"httpCode,omitempty"     xml:"HttpCode"     yaml:"http_code,omitempty"`
	Message      string `json:"message,omitempty"      xml:"Message"      yaml:"message,omitempty"`
	ExtendedCode string `json:"extendedCode,omitempty" xml:"ExtendedCode" yaml:"extended_code,omitempty"`
}

// CloudGame is a game hosted on the compute service.
type CloudGame struct {
	ID             string         `json:"id,omitempty"             yaml:"id,omitempty"`
	Name           string         `json:"name"                     yaml:"name"`
	DisplayName    string         `json:"displayName,omitempty"    yaml:"display_name,omitempty"`
	Status         string         `json:"status,omitempty"         yaml:"status,omitempty"`
	Platform       string         `json:"platform,omitempty"       yaml:"platform,omitempty"`
	Type           string         `json:"type,omitempty"           yaml:"type,omitempty"`
	SubscriptionID string         `json:"subscriptionId,omitempty" yaml:"subscription_id,omitempty"`
	TitleID        string         `json:"titleId,omitempty"        yaml:"title_id,omitempty"`
	PublisherID    string         `json:"publisherId,omitempty"    yaml:"publisher_id,omitempty"`
	SchemaID       string         `json:"schemaId,omitempty"       yaml:"schema_id,omitempty"`
	SchemaName     string         `json:"schemaName,omitempty"     yaml:"schema_name,omitempty"`
	GSISetID       string         `json:"gsiSetId,omitempty"       yaml:"gsi_set_id,omitempty"`
	GSIIDs         []string       `json:"gsiIds,omitempty"         yaml:"gsi_ids,omitempty"`
	Sandboxes      string         `json:"sandboxes,omitempty"      yaml:"sandboxes,omitempty"`
	ResourceSets   string         `json:"resourceSets,omitempty"   yaml:"resource_sets,omitempty"`
	SelectionOrder int            `json:"selectionOrder,omitempty" yaml:"selection_order,omitempty"`
	CanDeploy      bool           `json:"canDeploy,omitempty"      yaml:"can_deploy,omitempty"`
	Variants       []GameMode     `json:"variants,omitempty"       yaml:"variants,omitempty"`
	Tags           map[string]any `json:"tags,omitempty"           yaml:"tags,omitempty"`
	InErrorState   bool           `json:"inErrorState,omitempty"   yaml:"in_error_state,omitempty"`
	Error          *ResourceError `json:"error,omitempty"          yaml:"error,omitempty"`
}

// CloudGameRequest describes a cloud game to create. Either SchemaID or the
// Schema* fields must be set.
type CloudGameRequest struct {
	Name           string
	Platform       Platform
	TitleID        string
	SelectionOrder int
	Sandboxes      []string
	ResourceSetIDs []string
	SchemaID       string
	SchemaName     string
	SchemaFileName string
	Schema         io.Reader
	Tags           map[string]any
}

// DeployRequest publishes a cloud game.
type DeployRequest struct {
	Sandboxes   []string
	GeoRegions  []string
	PublishOnly bool
}

// GameModeSchema groups the game modes a cloud game may run.
type GameModeSchema struct {
	ID       string     `json:"id,omitempty"       yaml:"id,omitempty"`
	Name     string     `json:"name"               yaml:"name"`
	FileName string     `json:"filename,omitempty" yaml:"file_name,omitempty"`
	TitleID  string     `json:"titleId,omitempty"  yaml:"title_id,omitempty"`
	Variants []GameMode `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// GameModeSchemaCollection is returned when listing schemas.
type GameModeSchemaCollection struct {
	GameModeSchemas []GameModeSchema `json:"variantSchemas" yaml:"game_mode_schemas"`
}

// GameMode is one variant of a game mode schema.
type GameMode struct {
	ID          string `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string `json:"name"                  yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"display_name,omitempty"`
	Type        string `json:"type,omitempty"        yaml:"type,omitempty"`
	FileName    string `json:"fileName,omitempty"    yaml:"file_name,omitempty"`
	Status      string `json:"status,omitempty"      yaml:"status,omitempty"`
}

// GameModeCollection is returned when listing game modes of a schema.
type GameModeCollection struct {
	GameModes []GameMode `json:"variants" yaml:"game_modes"`
}

// ItemCreated is returned by create calls that only echo an identifier.
type ItemCreated struct {
	ID string `json:"id" yaml:"id"`
}

// VMPackage is a virtual machine image a cloud game runs on.
type VMPackage struct {
	ID                 string   `json:"vmPackageId"                  yaml:"id"`
	Name               string   `json:"name"                         yaml:"name"`
	CspkgFileName      string   `json:"cspkgFilename,omitempty"      yaml:"cspkg_file_name,omitempty"`
	CscfgFileName      string   `json:"cscfgFilename,omitempty"      yaml:"cscfg_file_name,omitempty"`
	MaxAllowedPlayers  int      `json:"maxAllowedPlayers,omitempty"  yaml:"max_allowed_players,omitempty"`
	MinRequiredPlayers int      `json:"minRequiredPlayers,omitempty" yaml:"min_required_players,omitempty"`
	AssetID            string   `json:"assetId,omitempty"            yaml:"asset_id,omitempty"`
	CertificateIDs     []string `json:"certificateIds,omitempty"     yaml:"certificate_ids,omitempty"`
	Status             string   `json:"status,omitempty"             yaml:"status,omitempty"`
	Active             bool     `json:"active,omitempty"             yaml:"active,omitempty"`
}

// VMPackageCollection is returned when listing VM packages.
type VMPackageCollection struct {
	VMPackages []VMPackage `json:"vmPackages" yaml:"vm_packages"`
}

// VMPackageRequest describes a VM package to upload.
type VMPackageRequest struct {
	Name           string
	MaxPlayers     int
	AssetID        string
	CertificateIDs []string
	CspkgFileName  string
	Cspkg          io.Reader
	CscfgFileName  string
	Cscfg          io.Reader
}

// VMPackagePostResponse carries the upload location of a new package.
type VMPackagePostResponse struct {
	VMPackageID     string `json:"vmPackageId"     yaml:"vm_package_id"`
	CspkgPreAuthURL string `json:"cspkgPreAuthUrl" yaml:"cspkg_pre_auth_url"`
}

// GamePackage is a code file deployed on top of a VM package.
type GamePackage struct {
	ID       string `json:"codeFileId"         yaml:"id"`
	Name     string `json:"name"               yaml:"name"`
	FileName string `json:"fileName,omitempty" yaml:"file_name,omitempty"`
	Active   bool   `json:"active"             yaml:"active"`
	Type     string `json:"type,omitempty"     yaml:"type,omitempty"`
}

// GamePackageCollection is returned when listing game packages.
type GamePackageCollection struct {
	GamePackages []GamePackage `json:"codeFiles" yaml:"game_packages"`
}

// GamePackageRequest describes a game package to upload or update.
type GamePackageRequest struct {
	Name     string
	FileName string
	Active   bool
	Content  io.Reader
}

// GamePackagePostResponse carries the upload location of a new game package.
type GamePackagePostResponse struct {
	GamePackageID         string `json:"gamePackageId"         yaml:"game_package_id"`
	GamePackagePreAuthURL string `json:"gamePackagePreAuthUrl" yaml:"game_package_pre_auth_url"`
}

// Certificate is a certificate uploaded to the subscription container.
type Certificate struct {
	ID             string    `json:"certificateId"            yaml:"id"`
	Name           string    `json:"name"                     yaml:"name"`
	FileName       string    `json:"filename,omitempty"       yaml:"file_name,omitempty"`
	Thumbprint     string    `json:"thumbprint,omitempty"     yaml:"thumbprint,omitempty"`
	ExpirationDate time.Time `json:"expirationDate,omitempty" yaml:"expiration_date,omitempty"`
	CloudGames     []string  `json:"cloudGames,omitempty"     yaml:"cloud_games,omitempty"`
}

// CertificateCollection is returned when listing certificates.
type CertificateCollection struct {
	Certificates []Certificate `json:"certificates" yaml:"certificates"`
}

// CertificateRequest describes a certificate to upload.
type CertificateRequest struct {
	Name     string
	FileName string
	Password string
	Content  io.Reader
}

// Asset is a file shared by the VM packages of a subscription.
type Asset struct {
	ID       string `json:"assetId"            yaml:"id"`
	Name     string `json:"name"               yaml:"name"`
	FileName string `json:"filename,omitempty" yaml:"file_name,omitempty"`
	Status   string `json:"status,omitempty"   yaml:"status,omitempty"`
}

// AssetCollection is returned when listing assets.
type AssetCollection struct {
	Assets []Asset `json:"assets" yaml:"assets"`
}

// AssetRequest describes an asset to upload.
type AssetRequest struct {
	Name     string
	FileName string
	Content  io.Reader
}

// AssetPostResponse carries the upload location of a new asset.
type AssetPostResponse struct {
	AssetID         string `json:"gameAssetId"  yaml:"asset_id"`
	AssetPreAuthURL string `json:"gameAssetUrl" yaml:"asset_pre_auth_url"`
}

// ManagementService describes the service build answering for the subscription.
type ManagementService struct {
	PackageVersion string `json:"packageVersion,omitempty" yaml:"package_version,omitempty"`
}

// Properties is the publisher information attached to the subscription.
type Properties struct {
	CloudGames        []CloudGame        `json:"cloudGames,omitempty"        yaml:"cloud_games,omitempty"`
	Sandboxes         []string           `json:"sandboxes,omitempty"         yaml:"sandboxes,omitempty"`
	Platform          string             `json:"platform,omitempty"          yaml:"platform,omitempty"`
	PartialResults    bool               `json:"partialResults,omitempty"    yaml:"partial_results,omitempty"`
	ManagementService *ManagementService `json:"managementService,omitempty" yaml:"management_service,omitempty"`
}

// DashboardSummary is the monitoring summary of a cloud game.
type DashboardSummary struct {
	TotalPlayers   int `json:"totalPlayers"   yaml:"total_players"`
	TotalSessions  int `json:"totalSessions"  yaml:"total_sessions"`
	TotalInstances int `json:"totalInstances" yaml:"total_instances"`
	TotalRegions   int `json:"totalRegions"   yaml:"total_regions"`
}

// DeploymentInfo is the usage of one deployment.
type DeploymentInfo struct {
	GeoRegion   string `json:"geoRegion"   yaml:"geo_region"`
	Sandbox     string `json:"sandbox"     yaml:"sandbox"`
	Active      int    `json:"active"      yaml:"active"`
	Quarantined int    `json:"quarantined" yaml:"quarantined"`
	Usage       int    `json:"usage"       yaml:"usage"`
}

// DeploymentData is the deployments report of a cloud game.
type DeploymentData struct {
	TotalUsage       int              `json:"totalUsage"       yaml:"total_usage"`
	TotalActive      int              `json:"totalActive"      yaml:"total_active"`
	TotalQuarantined int              `json:"totalQuarantined" yaml:"total_quarantined"`
	Deployments      []DeploymentInfo `json:"deployments"      yaml:"deployments"`
}

// PoolInfo is the capacity of one service pool.
type PoolInfo struct {
	Name      string `json:"name"      yaml:"name"`
	GeoRegion string `json:"geoRegion" yaml:"geo_region"`
	Size      int    `json:"size"      yaml:"size"`
	InUse     int    `json:"inUse"     yaml:"in_use"`
}

// PoolData is the service pools report of a cloud game.
type PoolData struct {
	Pools []PoolInfo `json:"servicePools" yaml:"pools"`
}

// DiagnosticFiles lists downloadable log or dump files.
type DiagnosticFiles struct {
	Files []string `json:"files" yaml:"files"`
}

// Cluster is a group of session hosts in one region.
type Cluster struct {
	ID        string `json:"clusterId" yaml:"id"`
	AgentID   string `json:"agentId"   yaml:"agent_id"`
	GeoRegion string `json:"geoRegion" yaml:"geo_region"`
	Status    string `json:"status"    yaml:"status"`
}

// ClusterCollection is returned when enumerating clusters.
type ClusterCollection struct {
	Clusters []Cluster `json:"clusters" yaml:"clusters"`
}

// ClusterQuery filters cluster enumeration.
type ClusterQuery struct {
	GeoRegion string
	Status    string
	ClusterID string
	AgentID   string
}

// CounterPoint is one sample of a monitoring counter.
type CounterPoint struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Value     float64   `json:"value"     yaml:"value"`
}

// CounterSeries is the data of one monitoring counter.
type CounterSeries struct {
	Name   string         `json:"name"   yaml:"name"`
	Points []CounterPoint `json:"points" yaml:"points"`
}

// CounterChartData is returned when querying monitoring counters.
type CounterChartData struct {
	Series []CounterSeries `json:"series" yaml:"series"`
}

// CounterQuery selects monitoring counter data.
type CounterQuery struct {
	GeoRegion    string
	StartTime    time.Time
	EndTime      time.Time
	Zoom         time.Duration
	CounterNames []string
}

// InsightsConfigItem routes telemetry of a target to an external sink.
type InsightsConfigItem struct {
	TargetName       string `json:"targetName"       yaml:"target_name"`
	TargetType       string `json:"targetType"       yaml:"target_type"`
	ConnectionString string `json:"connectionString" yaml:"connection_string"`
}

// InsightsConfigItems is returned when listing insights configuration.
type InsightsConfigItems struct {
	Items []InsightsConfigItem `json:"items" yaml:"items"`
}
