// Package mirror reads public mirror-node state. The verification
// engine uses it to enrich verdicts with consensus metadata and to
// re-query transaction outcomes after an interrupted confirmation
// wait.
package mirror
