// Package ai defines the embedding-provider interface consumed by the
// ingestion pipeline. The provider is optional: when no API credential is
// configured the pipeline skips the embedding stage instead of failing.
package ai
