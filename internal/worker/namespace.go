package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"google.golang.org/protobuf/types/known/durationpb"
)

// EnsureNamespace registers namespace, treating an existing one as success.
func EnsureNamespace(ctx context.Context, cli workflowservice.WorkflowServiceClient, namespace string, retention time.Duration) error {
	_, err := cli.RegisterNamespace(ctx, &workflowservice.RegisterNamespaceRequest{
		Namespace:                        namespace,
		WorkflowExecutionRetentionPeriod: durationpb.New(retention),
	})
	var alreadyErr *serviceerror.NamespaceAlreadyExists
	if errors.As(err, &alreadyErr) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("error registering namespace %s: %s", namespace, err)
	}

	return nil
}
