// Package cmd implements the categorizer CLI.
//
// Architecture overview:
//   - run: loads the domain list, skips domains already present in the success log and feeds the rest
//     through the pipeline in batches of pipeline.batch_size. Each domain is fetched with Colly, reduced to a
//     keyword digest with goquery, classified by the Ollama completion service and validated against the
//     category allow-list. Outcomes are appended to the success or failure log by one writer goroutine per
//     log, optionally mirrored to Postgres and Pub/Sub, and archived to a local directory or GCS at the end.
//   - report: counts success-log rows per category, writes the category-count CSV and prints a table.
//
// Operational notes:
//   - SIGINT/SIGTERM stop new batches. In-flight domains that fail because of the interruption are not
//     recorded, so a later run retries them.
//   - When api.addr is set, /healthz, /readyz, /metrics and /v1/progress are served while the run is active.
//   - Configure with a YAML file (--config) or CATEGORIZER_* environment variables, e.g.
//     CATEGORIZER_LLM_ENDPOINT, CATEGORIZER_PIPELINE_LIMIT, CATEGORIZER_ARCHIVE_KIND.
package cmd
