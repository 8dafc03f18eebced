package b2

import "time"

// Credentials identifies one B2 account. It never changes for the
// lifetime of a client.
type Credentials struct {
	AccountID      string
	ApplicationKey string
}

// Bucket represents a B2 bucket
type Bucket struct {
	AccountID  string            `json:"accountId"`
	BucketID   string            `json:"bucketId"`
	BucketName string            `json:"bucketName"`
	BucketType string            `json:"bucketType"`
	BucketInfo map[string]string `json:"bucketInfo"`
}

// Action values reported by the file listing endpoints.
const (
	ActionUpload = "upload"
	ActionHide   = "hide"
	ActionFolder = "folder"
	ActionStart  = "start"
)

// FileVersion represents one version of one file as reported by the
// listing and file-info endpoints. Unfinished large files use the same
// shape with Action set to "start".
type FileVersion struct {
	FileID          string            `json:"fileId"`
	FileName        string            `json:"fileName"`
	Action          string            `json:"action"`
	BucketID        string            `json:"bucketId"`
	ContentLength   int64             `json:"contentLength"`
	ContentSha1     string            `json:"contentSha1"`
	ContentType     string            `json:"contentType"`
	FileInfo        map[string]string `json:"fileInfo"`
	UploadTimestamp int64             `json:"uploadTimestamp"`
}

// Uploaded returns the upload timestamp as wall-clock time.
func (f FileVersion) Uploaded() time.Time {
	return time.UnixMilli(f.UploadTimestamp)
}

// ListOptions narrows a file listing. The zero value lists everything
// from the beginning with the endpoint's default page size.
type ListOptions struct {
	// StartFileName and StartFileID position the listing; normally left
	// empty to start from the beginning.
	StartFileName string
	StartFileID   string
	// MaxFileCount is the page size requested from the server, not a cap
	// on the number of items yielded.
	MaxFileCount int
	Prefix       string
	Delimiter    string
}

func (o ListOptions) pageSize(def int) int {
	if o.MaxFileCount > 0 {
		return o.MaxFileCount
	}
	return def
}

type authorizeResponse struct {
	AccountID          string `json:"accountId"`
	APIURL             string `json:"apiUrl"`
	DownloadURL        string `json:"downloadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

type listBucketsResponse struct {
	Buckets []Bucket `json:"buckets"`
}
