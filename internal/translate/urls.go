package translate

import (
	"fmt"
	"strings"
)

const defaultRegion = "us-east-1"

// ExecutionName is the last ':' segment of an execution ARN.
func ExecutionName(arn string) string {
	return arn[strings.LastIndex(arn, ":")+1:]
}

// ExecutionConsoleURL links an execution ARN to the state machine console of its region.
func ExecutionConsoleURL(arn string) string {
	region := defaultRegion
	if parts := strings.Split(arn, ":"); len(parts) > 3 && parts[3] != "" {
		region = parts[3]
	}
	return fmt.Sprintf("https://console.aws.amazon.com/states/home?region=%s#/executions/details/%s", region, arn)
}
