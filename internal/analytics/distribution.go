package analytics

import "github.com/sadopc/tasklog/internal/model"

// StatusBucket counts tasks sharing a status.
type StatusBucket struct {
	Status   model.TaskStatus
	Count    int
	ColorKey model.ColorKey
}

// Label is the display name of the bucket's status.
func (b StatusBucket) Label() string {
	return b.Status.Label()
}

// Share is the bucket's fraction of total as a percentage.
func (b StatusBucket) Share(total int) float64 {
	return Percent(float64(b.Count), float64(total))
}

// TaskDistribution groups tasks by status. Known statuses come first in
// workflow order, followed by unknown ones in first-seen order. The counts
// always sum to len(tasks); no tasks yields no buckets.
func TaskDistribution(tasks []model.Task) []StatusBucket {
	if len(tasks) == 0 {
		return nil
	}
	counts := make(map[model.TaskStatus]int)
	var unknown []model.TaskStatus
	for _, t := range tasks {
		if counts[t.Status] == 0 && !t.Status.Known() {
			unknown = append(unknown, t.Status)
		}
		counts[t.Status]++
	}

	var buckets []StatusBucket
	emit := func(s model.TaskStatus) {
		if n := counts[s]; n > 0 {
			buckets = append(buckets, StatusBucket{Status: s, Count: n, ColorKey: s.Color()})
		}
	}
	for _, s := range model.TaskStatuses {
		emit(s)
	}
	for _, s := range unknown {
		emit(s)
	}
	return buckets
}
