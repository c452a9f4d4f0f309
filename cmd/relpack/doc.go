// Command relpack prepares music release assets for distribution: it
// renames and organizes audio files and stems, applies ID3 tags, validates
// cover art and compliance requirements, and exports release metadata.
package main
