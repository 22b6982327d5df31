// Package translate turns flat joined rows into nested API records.
package translate

import (
	"fmt"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Record is one API record. Absent and null values are never present as keys.
type Record map[string]any

func (r Record) set(key string, v any) {
	if v != nil {
		r[key] = v
	}
}

// Options selects the optional parts of a record.
type Options struct {
	IncludeFullRecord bool
	IncludeStats      bool
}

// Children holds the batched child rows of one page, keyed by parent cumulus_id.
type Children struct {
	Files      map[int64][]Record
	Executions map[int64]string
	Stats      map[int64]Stats
}

type translator func(row db.Row, ch Children, opts Options) Record

var translators = map[domain.Entity]translator{
	domain.EntityGranule:              granule,
	domain.EntityCollection:           collection,
	domain.EntityProvider:             provider,
	domain.EntityPdr:                  pdr,
	domain.EntityExecution:            execution,
	domain.EntityAsyncOperation:       asyncOperation,
	domain.EntityReconciliationReport: reconciliationReport,
	domain.EntityRule:                 rule,
}

// Records translates a page of rows of one entity.
func Records(e domain.Entity, rows []db.Row, ch Children, opts Options) ([]Record, error) {
	t, ok := translators[e]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, e)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, t(row, ch, opts))
	}
	return out, nil
}

// CumulusIDs collects the surrogate keys of a page, in row order.
func CumulusIDs(rows []db.Row) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if id, ok := int64Value(row["cumulus_id"]); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func cumulusID(row db.Row) (int64, bool) {
	return int64Value(row["cumulus_id"])
}

// collectionID joins the decorated collection name and version.
func collectionID(row db.Row) any {
	name, okName := row["collectionName"].(string)
	version, okVersion := row["collectionVersion"].(string)
	if !okName || !okVersion {
		return nil
	}
	return domain.ConstructCollectionID(name, version)
}

func timestamps(r Record, row db.Row) {
	r.set("createdAt", epochMillis(row["created_at"]))
	r.set("updatedAt", epochMillis(row["updated_at"]))
	r.set("timestamp", epochMillis(row["timestamp"]))
}

func granule(row db.Row, ch Children, opts Options) Record {
	r := Record{}
	r.set("granuleId", str(row["granule_id"]))
	r.set("producerGranuleId", str(row["producer_granule_id"]))
	r.set("collectionId", collectionID(row))
	r.set("provider", str(row["providerName"]))
	r.set("pdrName", str(row["pdrName"]))
	r.set("status", str(row["status"]))
	r.set("published", boolean(row["published"]))
	r.set("archived", boolean(row["archived"]))
	r.set("cmrLink", str(row["cmr_link"]))
	r.set("duration", number(row["duration"]))
	r.set("timeToArchive", number(row["time_to_archive"]))
	r.set("timeToPreprocess", number(row["time_to_process"]))
	r.set("productVolume", numericString(row["product_volume"]))
	r.set("error", structured(row["error"]))
	r.set("queryFields", structured(row["query_fields"]))
	r.set("beginningDateTime", isoTime(row["beginning_date_time"]))
	r.set("endingDateTime", isoTime(row["ending_date_time"]))
	r.set("lastUpdateDateTime", isoTime(row["last_update_date_time"]))
	r.set("processingStartDateTime", isoTime(row["processing_start_date_time"]))
	r.set("processingEndDateTime", isoTime(row["processing_end_date_time"]))
	r.set("productionDateTime", isoTime(row["production_date_time"]))
	timestamps(r, row)

	if !opts.IncludeFullRecord {
		return r
	}
	if id, ok := cumulusID(row); ok {
		if files := ch.Files[id]; len(files) > 0 {
			out := make([]any, len(files))
			for i, f := range files {
				out[i] = map[string]any(f)
			}
			r["files"] = out
		}
		if url, ok := ch.Executions[id]; ok && url != "" {
			r["execution"] = url
		}
	}
	return r
}

// File translates one files row.
func File(row db.Row) Record {
	r := Record{}
	r.set("bucket", str(row["bucket"]))
	r.set("key", str(row["key"]))
	r.set("fileName", str(row["file_name"]))
	r.set("size", number(row["file_size"]))
	r.set("checksumType", str(row["checksum_type"]))
	r.set("checksum", str(row["checksum_value"]))
	r.set("source", str(row["source"]))
	r.set("type", str(row["type"]))
	return r
}

func collection(row db.Row, ch Children, opts Options) Record {
	r := Record{}
	r.set("name", str(row["name"]))
	r.set("version", str(row["version"]))
	r.set("process", str(row["process"]))
	r.set("url_path", str(row["url_path"]))
	r.set("duplicateHandling", str(row["duplicate_handling"]))
	r.set("granuleId", str(row["granule_id_validation_regex"]))
	r.set("granuleIdExtraction", str(row["granule_id_extraction_regex"]))
	r.set("sampleFileName", str(row["sample_file_name"]))
	r.set("files", structured(row["files"]))
	r.set("reportToEms", boolean(row["report_to_ems"]))
	r.set("ignoreFilesConfigForDiscovery", boolean(row["ignore_files_config_for_discovery"]))
	r.set("meta", structured(row["meta"]))
	r.set("tags", structured(row["tags"]))
	timestamps(r, row)

	if opts.IncludeStats {
		id, _ := cumulusID(row)
		r["stats"] = ch.Stats[id].Record()
	}
	return r
}

func provider(row db.Row, _ Children, _ Options) Record {
	r := Record{}
	r.set("id", str(row["name"]))
	r.set("protocol", str(row["protocol"]))
	r.set("host", str(row["host"]))
	r.set("port", number(row["port"]))
	r.set("username", str(row["username"]))
	r.set("globalConnectionLimit", number(row["global_connection_limit"]))
	r.set("maxDownloadTime", number(row["max_download_time"]))
	r.set("privateKey", str(row["private_key"]))
	r.set("cmKeyId", str(row["cm_key_id"]))
	r.set("certificateUri", str(row["certificate_uri"]))
	r.set("allowedRedirects", structured(row["allowed_redirects"]))
	timestamps(r, row)
	return r
}

func pdr(row db.Row, _ Children, _ Options) Record {
	r := Record{}
	r.set("pdrName", str(row["name"]))
	r.set("collectionId", collectionID(row))
	r.set("provider", str(row["providerName"]))
	r.set("status", str(row["status"]))
	r.set("progress", number(row["progress"]))
	r.set("PANSent", boolean(row["pan_sent"]))
	r.set("PANmessage", str(row["pan_message"]))
	r.set("stats", structured(row["stats"]))
	r.set("address", str(row["address"]))
	r.set("originalUrl", str(row["original_url"]))
	r.set("duration", number(row["duration"]))
	if arn, ok := row["executionArn"].(string); ok && arn != "" {
		r["execution"] = ExecutionConsoleURL(arn)
	}
	timestamps(r, row)
	return r
}

func execution(row db.Row, _ Children, _ Options) Record {
	r := Record{}
	if arn, ok := row["arn"].(string); ok {
		r["arn"] = arn
		r["name"] = ExecutionName(arn)
	}
	r.set("status", str(row["status"]))
	r.set("duration", number(row["duration"]))
	r.set("error", structured(row["error"]))
	r.set("tasks", structured(row["tasks"]))
	r.set("originalPayload", structured(row["original_payload"]))
	r.set("finalPayload", structured(row["final_payload"]))
	r.set("type", str(row["workflow_name"]))
	r.set("execution", str(row["url"]))
	r.set("cumulusVersion", str(row["cumulus_version"]))
	r.set("collectionId", collectionID(row))
	r.set("asyncOperationId", str(row["asyncOperationId"]))
	r.set("parentArn", str(row["parentArn"]))
	r.set("archived", boolean(row["archived"]))
	timestamps(r, row)
	return r
}

func asyncOperation(row db.Row, _ Children, _ Options) Record {
	r := Record{}
	r.set("id", str(row["id"]))
	r.set("description", str(row["description"]))
	r.set("operationType", str(row["operation_type"]))
	r.set("status", str(row["status"]))
	r.set("output", jsonText(row["output"]))
	r.set("taskArn", str(row["task_arn"]))
	timestamps(r, row)
	return r
}

func reconciliationReport(row db.Row, _ Children, _ Options) Record {
	r := Record{}
	r.set("name", str(row["name"]))
	r.set("type", str(row["type"]))
	r.set("status", str(row["status"]))
	r.set("location", str(row["location"]))
	r.set("error", structured(row["error"]))
	timestamps(r, row)
	return r
}

func rule(row db.Row, _ Children, _ Options) Record {
	r := Record{}
	r.set("name", str(row["name"]))
	r.set("workflow", str(row["workflow"]))
	r.set("provider", str(row["providerName"]))
	if name, ok := row["collectionName"].(string); ok {
		r["collection"] = map[string]any{"name": name, "version": row["collectionVersion"]}
	}
	spec := Record{}
	spec.set("type", str(row["type"]))
	spec.set("value", str(row["value"]))
	spec.set("arn", str(row["arn"]))
	spec.set("logEventArn", str(row["log_event_arn"]))
	if len(spec) > 0 {
		r["rule"] = map[string]any(spec)
	}
	if enabled, ok := boolean(row["enabled"]).(bool); ok {
		r["state"] = "DISABLED"
		if enabled {
			r["state"] = "ENABLED"
		}
	}
	r.set("meta", structured(row["meta"]))
	r.set("payload", structured(row["payload"]))
	r.set("tags", structured(row["tags"]))
	r.set("executionNamePrefix", str(row["execution_name_prefix"]))
	r.set("queueUrl", str(row["queue_url"]))
	timestamps(r, row)
	return r
}
