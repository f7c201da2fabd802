// Package notifications delivers optional run summaries over ntfy.
package notifications
