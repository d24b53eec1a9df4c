package metadata

/** @brief Invoked when a job starts. A non-nil error marks the job failed. */
type JobStart func(params interface{}) error

/** @brief Invoked after a job succeeded. */
type JobOnComplete func(params interface{})

/** @brief Invoked after a job failed or panicked. */
type JobOnFailure func(params interface{}, err error)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Data passed to every callback of the job. */
	InputParams interface{}
	/** @brief A function to be invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief A function to be invoked when the job successfully completes. Optional. */
	OnComplete JobOnComplete
	/** @brief A function to be invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Always invoked last, whatever the outcome. Optional. */
	OnCompletionCallback func()
}
