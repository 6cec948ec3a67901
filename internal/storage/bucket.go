package storage

// Bucket is the closed set of object namespaces. Using a dedicated type
// keeps typos from ever reaching the storage backend.
type Bucket string

const (
	BucketAvatars   Bucket = "avatars"
	BucketListings  Bucket = "listings"
	BucketMessages  Bucket = "messages"
	BucketDisputes  Bucket = "disputes"
	BucketDocuments Bucket = "documents"
)

func (b Bucket) String() string {
	return string(b)
}

func (b Bucket) Valid() bool {
	switch b {
	case BucketAvatars, BucketListings, BucketMessages, BucketDisputes, BucketDocuments:
		return true
	}
	return false
}

// Private buckets must be accessed through signed URLs; their public
// URLs are never handed to clients.
func (b Bucket) Private() bool {
	switch b {
	case BucketDisputes, BucketDocuments:
		return true
	}
	return false
}
