package model

import "time"

// Profile is the single mutable record each principal owns. It is soulbound:
// Owner is set at creation and there is no transfer or burn operation.
type Profile struct {
	ObjectType       string    `json:"objectType"` // "Profile"
	ID               string    `json:"id"`
	Owner            string    `json:"owner"`    // Full client identity string of the creator
	OwnerMSP         string    `json:"ownerMsp"` // MSP ID of the creator's organization
	Name             string    `json:"name"`
	Bio              string    `json:"bio"`
	AvatarURL        string    `json:"avatarUrl"`
	BannerURL        string    `json:"bannerUrl"`
	SocialLinks      []string  `json:"socialLinks"`
	ProjectCount     uint64    `json:"projectCount"`     // Slots ever allocated; removed slots stay counted
	CertificateCount uint64    `json:"certificateCount"` // Lifetime certificates minted against this profile
	Verified         bool      `json:"verified"`
	CreatedAt        time.Time `json:"createdAt"`
	LastUpdatedAt    time.Time `json:"lastUpdatedAt"`
}

// Project is a sub-record of a Profile, stored separately under the
// (profileId, index) composite key so the parent never carries the
// collection itself. Index assignment is append-only: a removed index is
// never handed out again.
type Project struct {
	ObjectType  string    `json:"objectType"` // "Project"
	ProfileID   string    `json:"profileId"`
	Index       uint64    `json:"index"`
	Name        string    `json:"name"`
	LinkDemo    string    `json:"linkDemo"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Certificate is an independently owned, transferable record endorsed by a
// profile. ProfileID is a back-reference only; the profile does not
// enumerate its certificates and the two owners may diverge after transfer.
type Certificate struct {
	ObjectType     string    `json:"objectType"` // "Certificate"
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	ProfileID      string    `json:"profileId"`
	Title          string    `json:"title"`
	Issuer         string    `json:"issuer"`
	IssueDate      string    `json:"issueDate"`
	CertificateURL string    `json:"certificateUrl"`
	Description    string    `json:"description"`
	CredentialID   string    `json:"credentialId"`
	CreatedAt      time.Time `json:"createdAt"`
	LastUpdatedAt  time.Time `json:"lastUpdatedAt"`
}

// PaginatedProfileResponse is the structure returned by paginated profile queries.
type PaginatedProfileResponse struct {
	Profiles     []*Profile `json:"profiles"`
	NextBookmark string     `json:"nextBookmark"`
	FetchedCount int32      `json:"fetchedCount"`
}

// PaginatedProjectResponse is the structure returned when enumerating the
// occupied project slots of one profile.
type PaginatedProjectResponse struct {
	Projects     []*Project `json:"projects"`
	NextBookmark string     `json:"nextBookmark"`
	FetchedCount int32      `json:"fetchedCount"`
}
