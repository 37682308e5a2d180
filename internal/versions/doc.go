// Package versions implements branch-name scanning, version classification,
// ordering, and predecessor selection for version-namespaced product branches.
// Branch names carry either a two-component MAJOR.MINOR version or a full
// MAJOR.MINOR.PATCH version; the package keeps the two shapes in separate
// ordered partitions and merges them only when choosing a predecessor.
package versions
