package fieldmap

import "github.com/kailas-cloud/metasearch/internal/domain"

func withTimestamps(fields ...Field) []Field {
	return append(fields, timestamps()...)
}

var registry = map[domain.Entity]Mapping{
	domain.EntityGranule: newMapping(domain.EntityGranule, withTimestamps(
		primary("granuleId", "granule_id", KindString),
		primary("producerGranuleId", "producer_granule_id", KindString),
		primary("status", "status", KindString),
		primary("published", "published", KindBoolean),
		primary("archived", "archived", KindBoolean),
		primary("cmrLink", "cmr_link", KindString),
		primary("duration", "duration", KindNumber),
		primary("timeToArchive", "time_to_archive", KindNumber),
		primary("timeToPreprocess", "time_to_process", KindNumber),
		primary("productVolume", "product_volume", KindNumber),
		primary("beginningDateTime", "beginning_date_time", KindDate),
		primary("endingDateTime", "ending_date_time", KindDate),
		primary("lastUpdateDateTime", "last_update_date_time", KindDate),
		primary("processingStartDateTime", "processing_start_date_time", KindDate),
		primary("processingEndDateTime", "processing_end_date_time", KindDate),
		primary("productionDateTime", "production_date_time", KindDate),
		jsonField("error.Error", "error", "Error"),
		collectionID(),
		related("provider", "providerName", RelProvider, "name", KindString),
		related("pdrName", "pdrName", RelPdr, "name", KindString),
	)...),

	domain.EntityCollection: newMapping(domain.EntityCollection, withTimestamps(
		primary("name", "name", KindString),
		primary("version", "version", KindString),
		primary("process", "process", KindString),
		primary("url_path", "url_path", KindString),
		primary("duplicateHandling", "duplicate_handling", KindString),
		primary("granuleId", "granule_id_validation_regex", KindString),
		primary("granuleIdExtraction", "granule_id_extraction_regex", KindString),
		primary("sampleFileName", "sample_file_name", KindString),
		primary("reportToEms", "report_to_ems", KindBoolean),
		related("provider", "providerName", RelGranules, "name", KindString),
	)...),

	domain.EntityProvider: newMapping(domain.EntityProvider, withTimestamps(
		primary("name", "name", KindString),
		alias("id", primary("name", "name", KindString)),
		primary("protocol", "protocol", KindString),
		primary("host", "host", KindString),
		primary("port", "port", KindNumber),
		primary("globalConnectionLimit", "global_connection_limit", KindNumber),
		primary("maxDownloadTime", "max_download_time", KindNumber),
		primary("privateKey", "private_key", KindString),
		primary("cmKeyId", "cm_key_id", KindString),
		primary("certificateUri", "certificate_uri", KindString),
	)...),

	domain.EntityPdr: newMapping(domain.EntityPdr, withTimestamps(
		primary("pdrName", "name", KindString),
		primary("status", "status", KindString),
		primary("progress", "progress", KindNumber),
		primary("PANSent", "pan_sent", KindBoolean),
		primary("PANmessage", "pan_message", KindString),
		primary("address", "address", KindString),
		primary("originalUrl", "original_url", KindString),
		primary("duration", "duration", KindNumber),
		collectionID(),
		related("provider", "providerName", RelProvider, "name", KindString),
		related("executionArn", "executionArn", RelExecution, "arn", KindString),
	)...),

	domain.EntityExecution: newMapping(domain.EntityExecution, withTimestamps(
		primary("arn", "arn", KindString),
		primary("status", "status", KindString),
		primary("type", "workflow_name", KindString),
		primary("execution", "url", KindString),
		primary("duration", "duration", KindNumber),
		primary("cumulusVersion", "cumulus_version", KindString),
		primary("archived", "archived", KindBoolean),
		jsonField("error.Error", "error", "Error"),
		collectionID(),
		related("asyncOperationId", "asyncOperationId", RelAsyncOperation, "id", KindUUID),
		related("parentArn", "parentArn", RelParent, "arn", KindString),
	)...),

	domain.EntityAsyncOperation: newMapping(domain.EntityAsyncOperation, withTimestamps(
		primary("id", "id", KindUUID),
		primary("description", "description", KindString),
		primary("operationType", "operation_type", KindString),
		primary("status", "status", KindString),
		primary("taskArn", "task_arn", KindString),
	)...),

	domain.EntityReconciliationReport: newMapping(domain.EntityReconciliationReport, withTimestamps(
		primary("name", "name", KindString),
		primary("type", "type", KindString),
		primary("status", "status", KindString),
		primary("location", "location", KindString),
		jsonField("error.Error", "error", "Error"),
	)...),

	domain.EntityRule: newMapping(domain.EntityRule, withTimestamps(
		primary("name", "name", KindString),
		primary("workflow", "workflow", KindString),
		primary("type", "type", KindString),
		primary("state", "enabled", KindEnabledState),
		primary("queueUrl", "queue_url", KindString),
		primary("executionNamePrefix", "execution_name_prefix", KindString),
		collectionID(),
		related("provider", "providerName", RelProvider, "name", KindString),
	)...),
}
