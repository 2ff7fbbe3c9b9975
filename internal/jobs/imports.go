package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job type constants for the import pipeline
const (
	JobTypeValidateImport        = "import:validate"
	JobTypeVerifyImportAddresses = "import:verify_addresses"
	JobTypeFinalizeImport        = "import:finalize"
	JobTypeVerifyShipments       = "shipments:verify"
)

// QueueImports is the queue every pipeline job is placed on.
const QueueImports = "imports"

// VerifyChunkSize bounds how many shipments one shipments:verify job covers.
const VerifyChunkSize = 10

// verifySecondsPerShipment is the worst case for one shipment: two addresses
// through three providers at the default 5s provider timeout.
const verifySecondsPerShipment = 30

// chain lists each import job's successor. import:verify_addresses has none:
// it fans out into shipments:verify chunks and finalize runs once the last
// of them is done (see VerificationJobTypes).
var chain = map[string]string{
	JobTypeValidateImport: JobTypeVerifyImportAddresses,
}

// VerificationJobTypes are the jobs that must all be finished before an
// import is finalized.
var VerificationJobTypes = []string{JobTypeVerifyImportAddresses, JobTypeVerifyShipments}

// ImportPayload identifies the import a pipeline step works on.
type ImportPayload struct {
	ImportJobID uuid.UUID `json:"import_job_id"`
}

// VerifyShipmentsPayload lists the shipments to verify. ImportJobID is set
// only on chunks of an import's verification step.
type VerifyShipmentsPayload struct {
	ShipmentIDs []uuid.UUID `json:"shipment_ids"`
	ImportJobID uuid.UUID   `json:"import_job_id,omitzero"`
}

// NextInChain returns the job that runs after jobType succeeds.
func NextInChain(jobType string) (string, bool) {
	next, ok := chain[jobType]
	return next, ok
}

// IsImportJob reports whether a job type belongs to an import's chain.
func IsImportJob(jobType string) bool {
	switch jobType {
	case JobTypeValidateImport, JobTypeVerifyImportAddresses, JobTypeFinalizeImport:
		return true
	}
	return false
}

// EnqueueImportStep enqueues one step of an import's chain.
func EnqueueImportStep(ctx context.Context, q Queue, jobType string, importJobID uuid.UUID) (*Job, error) {
	if !IsImportJob(jobType) {
		return nil, fmt.Errorf("not an import job type: %s", jobType)
	}
	payloadJSON, err := json.Marshal(ImportPayload{ImportJobID: importJobID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return q.EnqueueJob(ctx, EnqueueJobParams{
		JobType:        jobType,
		Queue:          QueueImports,
		Payload:        payloadJSON,
		Priority:       50,
		MaxRetries:     3,
		TimeoutSeconds: 120,
		ScheduledAt:    time.Now(),
	})
}

// EnqueueValidateImport starts an import's chain.
func EnqueueValidateImport(ctx context.Context, q Queue, importJobID uuid.UUID) (*Job, error) {
	return EnqueueImportStep(ctx, q, JobTypeValidateImport, importJobID)
}

// EnqueueVerifyShipments enqueues re-verification of the given shipments,
// one job per VerifyChunkSize ids.
func EnqueueVerifyShipments(ctx context.Context, q Queue, shipmentIDs []uuid.UUID) ([]*Job, error) {
	return enqueueVerify(ctx, q, uuid.Nil, shipmentIDs, 100) // user is waiting on the review page
}

// EnqueueImportVerification enqueues the verification chunks of an import.
func EnqueueImportVerification(ctx context.Context, q Queue, importJobID uuid.UUID, shipmentIDs []uuid.UUID) ([]*Job, error) {
	return enqueueVerify(ctx, q, importJobID, shipmentIDs, 50)
}

func enqueueVerify(ctx context.Context, q Queue, importJobID uuid.UUID, shipmentIDs []uuid.UUID, priority int) ([]*Job, error) {
	var queued []*Job
	for start := 0; start < len(shipmentIDs); start += VerifyChunkSize {
		chunk := shipmentIDs[start:min(start+VerifyChunkSize, len(shipmentIDs))]
		payloadJSON, err := json.Marshal(VerifyShipmentsPayload{ShipmentIDs: chunk, ImportJobID: importJobID})
		if err != nil {
			return queued, fmt.Errorf("failed to marshal payload: %w", err)
		}

		job, err := q.EnqueueJob(ctx, EnqueueJobParams{
			JobType:        JobTypeVerifyShipments,
			Queue:          QueueImports,
			Payload:        payloadJSON,
			Priority:       priority,
			MaxRetries:     3,
			TimeoutSeconds: max(60, len(chunk)*verifySecondsPerShipment),
			ScheduledAt:    time.Now(),
		})
		if err != nil {
			return queued, err
		}
		queued = append(queued, job)
	}
	return queued, nil
}

// DecodeImportPayload reads an import step's payload.
func DecodeImportPayload(job *Job) (ImportPayload, error) {
	var payload ImportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal import payload: %w", err)
	}
	if payload.ImportJobID == uuid.Nil {
		return payload, fmt.Errorf("import payload missing import_job_id")
	}
	return payload, nil
}

// DecodeVerifyShipmentsPayload reads a shipments:verify payload.
func DecodeVerifyShipmentsPayload(job *Job) (VerifyShipmentsPayload, error) {
	var payload VerifyShipmentsPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal verify payload: %w", err)
	}
	return payload, nil
}
