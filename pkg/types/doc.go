// Package types defines the farmer-facing entities, the Store and table
// interfaces, and the standard errors shared by the krishi client.
package types
