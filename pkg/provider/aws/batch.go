package aws

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	batchtypes "github.com/aws/aws-sdk-go-v2/service/batch/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

// Scheduled jobs ride EventBridge schedule rules on the default bus,
// prefixed so they can be listed apart from routing rules.
const scheduleRulePrefix = "batch-schedule-"

// extraSchedulerRole names the role EventBridge assumes to submit
// scheduled jobs.
const extraSchedulerRole = "batch.schedulerRoleArn"

type batchService struct {
	client   *batch.Client
	events   *eventbridge.Client
	retry    retry.Policy
	queue    string
	jobDef   string
	schedARN string
}

func newBatchService(cfg awssdk.Config, deps provider.Deps) *batchService {
	opts := deps.Config.Options
	return &batchService{
		client: batch.NewFromConfig(cfg, func(o *batch.Options) {
			o.BaseEndpoint = endpoint(deps.Config)
		}),
		events: eventbridge.NewFromConfig(cfg, func(o *eventbridge.Options) {
			o.BaseEndpoint = endpoint(deps.Config)
		}),
		retry:    deps.Retry,
		queue:    opts.Batch.JobQueue,
		jobDef:   opts.Batch.JobDefinition,
		schedARN: opts.Extra[extraSchedulerRole],
	}
}

func (s *batchService) SubmitJob(ctx context.Context, params types.SubmitJobParams) (*types.Job, error) {
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("name", "job name is required")
	}
	if s.queue == "" || s.jobDef == "" {
		return nil, errdefs.NewValidation("batch job queue and job definition must be configured")
	}
	overrides := &batchtypes.ContainerOverrides{Command: params.Command}
	for k, v := range params.Environment {
		overrides.Environment = append(overrides.Environment, batchtypes.KeyValuePair{
			Name:  awssdk.String(k),
			Value: awssdk.String(v),
		})
	}
	if params.CPU > 0 {
		overrides.ResourceRequirements = append(overrides.ResourceRequirements, batchtypes.ResourceRequirement{
			Type:  batchtypes.ResourceTypeVcpu,
			Value: awssdk.String(strconv.Itoa(params.CPU)),
		})
	}
	if params.MemoryMB > 0 {
		overrides.ResourceRequirements = append(overrides.ResourceRequirements, batchtypes.ResourceRequirement{
			Type:  batchtypes.ResourceTypeMemory,
			Value: awssdk.String(strconv.Itoa(params.MemoryMB)),
		})
	}
	in := &batch.SubmitJobInput{
		JobName:            awssdk.String(params.Name),
		JobQueue:           awssdk.String(s.queue),
		JobDefinition:      awssdk.String(s.jobDef),
		ContainerOverrides: overrides,
		Tags:               params.Tags,
	}
	if params.RetryCount > 0 {
		in.RetryStrategy = &batchtypes.RetryStrategy{
			Attempts: awssdk.Int32(int32(params.RetryCount + 1)),
		}
	}
	if params.Timeout > 0 {
		in.Timeout = &batchtypes.JobTimeout{
			AttemptDurationSeconds: awssdk.Int32(int32(params.Timeout)),
		}
	}
	var out *batch.SubmitJobOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.SubmitJob(ctx, in)
		return translate(opErr, "job")
	})
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, awssdk.ToString(out.JobId))
}

func (s *batchService) GetJob(ctx context.Context, id string) (*types.Job, error) {
	var out *batch.DescribeJobsOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.DescribeJobs(ctx, &batch.DescribeJobsInput{Jobs: []string{id}})
		return translate(opErr, "job")
	})
	if err != nil {
		return nil, err
	}
	if len(out.Jobs) == 0 {
		return nil, errdefs.NewNotFound("job", id)
	}
	return detailToJob(out.Jobs[0]), nil
}

func (s *batchService) CancelJob(ctx context.Context, id string) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return errdefs.NewConflict("job %s already finished with status %s", id, job.Status)
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.TerminateJob(ctx, &batch.TerminateJobInput{
			JobId:  awssdk.String(id),
			Reason: awssdk.String("cancelled by caller"),
		})
		return translate(err, "job")
	})
}

func (s *batchService) ListJobs(ctx context.Context, status types.JobStatus) ([]types.Job, error) {
	if s.queue == "" {
		return nil, errdefs.NewValidation("batch job queue must be configured")
	}
	var jobs []types.Job
	for _, awsStatus := range awsJobStatuses(status) {
		p := batch.NewListJobsPaginator(s.client, &batch.ListJobsInput{
			JobQueue:  awssdk.String(s.queue),
			JobStatus: awsStatus,
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, translate(err, "job")
			}
			for _, summary := range page.JobSummaryList {
				jobs = append(jobs, summaryToJob(summary))
			}
		}
	}
	return jobs, nil
}

func (s *batchService) ScheduleJob(ctx context.Context, params types.ScheduleJobParams) (*types.ScheduledJob, error) {
	if params.Name == "" {
		return nil, errdefs.NewValidationPath("name", "schedule name is required")
	}
	if !validSchedule(params.Schedule) {
		return nil, errdefs.NewValidationPath("schedule", "schedule must be a cron(...) or rate(...) expression")
	}
	if s.queue == "" || s.jobDef == "" {
		return nil, errdefs.NewValidation("batch job queue and job definition must be configured")
	}
	state := ebtypes.RuleStateDisabled
	if params.Enabled {
		state = ebtypes.RuleStateEnabled
	}
	ruleName := scheduleRulePrefix + params.Name
	var rule *eventbridge.PutRuleOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		rule, opErr = s.events.PutRule(ctx, &eventbridge.PutRuleInput{
			Name:               awssdk.String(ruleName),
			ScheduleExpression: awssdk.String(params.Schedule),
			State:              state,
		})
		return translate(opErr, "schedule")
	})
	if err != nil {
		return nil, err
	}
	template, err := json.Marshal(params.Template)
	if err != nil {
		return nil, errdefs.NewValidationPath("template", "job template is not serializable").WithCause(err)
	}
	target := ebtypes.Target{
		Id:    awssdk.String(params.Name),
		Arn:   awssdk.String(s.queue),
		Input: awssdk.String(string(template)),
		BatchParameters: &ebtypes.BatchParameters{
			JobDefinition: awssdk.String(s.jobDef),
			JobName:       awssdk.String(params.Template.Name),
		},
	}
	if s.schedARN != "" {
		target.RoleArn = awssdk.String(s.schedARN)
	}
	_, err = s.events.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule:    awssdk.String(ruleName),
		Targets: []ebtypes.Target{target},
	})
	if err != nil {
		return nil, translate(err, "schedule")
	}
	return &types.ScheduledJob{
		ID:       awssdk.ToString(rule.RuleArn),
		Name:     params.Name,
		Schedule: params.Schedule,
		Enabled:  params.Enabled,
		Template: params.Template,
		Created:  time.Now().UTC(),
	}, nil
}

func (s *batchService) DeleteScheduledJob(ctx context.Context, name string) error {
	ruleName := scheduleRulePrefix + name
	_, err := s.events.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule: awssdk.String(ruleName),
		Ids:  []string{name},
	})
	if err != nil {
		return translate(err, "schedule")
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.events.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
			Name: awssdk.String(ruleName),
		})
		return translate(err, "schedule")
	})
}

func (s *batchService) ListScheduledJobs(ctx context.Context) ([]types.ScheduledJob, error) {
	var scheduled []types.ScheduledJob
	p := eventbridge.NewListRulesPaginator(s.events, &eventbridge.ListRulesInput{
		NamePrefix: awssdk.String(scheduleRulePrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "schedule")
		}
		for _, r := range page.Rules {
			job := types.ScheduledJob{
				ID:       awssdk.ToString(r.Arn),
				Name:     strings.TrimPrefix(awssdk.ToString(r.Name), scheduleRulePrefix),
				Schedule: awssdk.ToString(r.ScheduleExpression),
				Enabled:  r.State == ebtypes.RuleStateEnabled,
			}
			targets, err := s.events.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{
				Rule: r.Name,
			})
			if err != nil {
				return nil, translate(err, "schedule")
			}
			if len(targets.Targets) > 0 && targets.Targets[0].Input != nil {
				_ = json.Unmarshal([]byte(*targets.Targets[0].Input), &job.Template)
			}
			scheduled = append(scheduled, job)
		}
	}
	return scheduled, nil
}

func detailToJob(detail batchtypes.JobDetail) *types.Job {
	job := &types.Job{
		ID:     awssdk.ToString(detail.JobId),
		Name:   awssdk.ToString(detail.JobName),
		Status: portableJobStatus(detail.Status),
		Error:  awssdk.ToString(detail.StatusReason),
		Tags:   detail.Tags,
	}
	job.AttemptsMade = len(detail.Attempts)
	if detail.RetryStrategy != nil && detail.RetryStrategy.Attempts != nil {
		job.RetryCount = int(*detail.RetryStrategy.Attempts) - 1
	}
	if detail.Timeout != nil && detail.Timeout.AttemptDurationSeconds != nil {
		job.Timeout = int(*detail.Timeout.AttemptDurationSeconds)
	}
	if c := detail.Container; c != nil {
		job.Image = awssdk.ToString(c.Image)
		job.Command = c.Command
		if c.ExitCode != nil {
			code := int(*c.ExitCode)
			job.ExitCode = &code
		}
		for _, kv := range c.Environment {
			if job.Environment == nil {
				job.Environment = map[string]string{}
			}
			job.Environment[awssdk.ToString(kv.Name)] = awssdk.ToString(kv.Value)
		}
	}
	if detail.CreatedAt != nil {
		job.Created = time.UnixMilli(*detail.CreatedAt).UTC()
	}
	if detail.StartedAt != nil {
		job.Started = time.UnixMilli(*detail.StartedAt).UTC()
	}
	if detail.StoppedAt != nil {
		job.Finished = time.UnixMilli(*detail.StoppedAt).UTC()
	}
	return job
}

func summaryToJob(summary batchtypes.JobSummary) types.Job {
	job := types.Job{
		ID:     awssdk.ToString(summary.JobId),
		Name:   awssdk.ToString(summary.JobName),
		Status: portableJobStatus(summary.Status),
		Error:  awssdk.ToString(summary.StatusReason),
	}
	if summary.Container != nil && summary.Container.ExitCode != nil {
		code := int(*summary.Container.ExitCode)
		job.ExitCode = &code
	}
	if summary.CreatedAt != nil {
		job.Created = time.UnixMilli(*summary.CreatedAt).UTC()
	}
	if summary.StartedAt != nil {
		job.Started = time.UnixMilli(*summary.StartedAt).UTC()
	}
	if summary.StoppedAt != nil {
		job.Finished = time.UnixMilli(*summary.StoppedAt).UTC()
	}
	return job
}

func portableJobStatus(status batchtypes.JobStatus) types.JobStatus {
	switch status {
	case batchtypes.JobStatusSubmitted, batchtypes.JobStatusPending, batchtypes.JobStatusRunnable:
		return types.JobPending
	case batchtypes.JobStatusStarting, batchtypes.JobStatusRunning:
		return types.JobRunning
	case batchtypes.JobStatusSucceeded:
		return types.JobSucceeded
	case batchtypes.JobStatusFailed:
		return types.JobFailed
	default:
		return types.JobPending
	}
}

func awsJobStatuses(status types.JobStatus) []batchtypes.JobStatus {
	switch status {
	case types.JobPending:
		return []batchtypes.JobStatus{batchtypes.JobStatusSubmitted, batchtypes.JobStatusPending, batchtypes.JobStatusRunnable}
	case types.JobRunning:
		return []batchtypes.JobStatus{batchtypes.JobStatusStarting, batchtypes.JobStatusRunning}
	case types.JobSucceeded:
		return []batchtypes.JobStatus{batchtypes.JobStatusSucceeded}
	case types.JobFailed, types.JobCancelled:
		return []batchtypes.JobStatus{batchtypes.JobStatusFailed}
	default:
		return []batchtypes.JobStatus{
			batchtypes.JobStatusSubmitted, batchtypes.JobStatusPending, batchtypes.JobStatusRunnable,
			batchtypes.JobStatusStarting, batchtypes.JobStatusRunning,
			batchtypes.JobStatusSucceeded, batchtypes.JobStatusFailed,
		}
	}
}

func validSchedule(expr string) bool {
	return (strings.HasPrefix(expr, "cron(") || strings.HasPrefix(expr, "rate(")) && strings.HasSuffix(expr, ")")
}
