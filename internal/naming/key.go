package naming

// RemoteKey maps a local path to its object-store key. The store is a flat
// namespace keyed by filename identity: directory and final extension are
// dropped, so the key depends on nothing but the path.
func RemoteKey(path string) string {
	return BaseName(path)
}
