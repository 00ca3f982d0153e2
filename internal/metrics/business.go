package metrics

func (m *Metrics) BuilderOperation(op string) {
	m.safeExecute("BuilderOperation", func() {
		m.BuilderOperationsTotal.WithLabelValues(op).Inc()
	})
}

func (m *Metrics) BuilderRejection(op, reason string) {
	m.safeExecute("BuilderRejection", func() {
		m.BuilderRejectionsTotal.WithLabelValues(op, reason).Inc()
	})
}

func (m *Metrics) SessionOpened() {
	m.safeExecute("SessionOpened", func() { m.BuilderSessionsActive.Inc() })
}

func (m *Metrics) SessionClosed() {
	m.safeExecute("SessionClosed", func() { m.BuilderSessionsActive.Dec() })
}

func (m *Metrics) FormSaved(status string) {
	m.safeExecute("FormSaved", func() {
		m.FormsSavedTotal.WithLabelValues(status).Inc()
	})
}

func (m *Metrics) FormDeleted() {
	m.safeExecute("FormDeleted", func() { m.FormsDeletedTotal.Inc() })
}

func (m *Metrics) SubmissionAccepted() {
	m.safeExecute("SubmissionAccepted", func() { m.SubmissionsTotal.Inc() })
}

// SubmissionPersisted counts a flush attempt; ok=false means it was
// re-queued.
func (m *Metrics) SubmissionPersisted(ok bool) {
	m.safeExecute("SubmissionPersisted", func() {
		result := "ok"
		if !ok {
			result = "retry"
		}
		m.SubmissionsPersisted.WithLabelValues(result).Inc()
	})
}

func (m *Metrics) SetSubmissionQueueLength(n int64) {
	m.safeExecute("SetSubmissionQueueLength", func() {
		m.SubmissionQueueLength.Set(float64(n))
	})
}
