package status

// mapResponse converts the resolved outcome of a call into the caller-facing
// result. Anything other than a success maps to a failure carrying retries.
func mapResponse(resp Response, retries int) ApplicationStatus {
	if resp.Kind == KindSuccess {
		return &SuccessStatus{
			ID:     resp.ApplicationID,
			Status: resp.Status,
		}
	}

	return &FailureStatus{RetriesCount: retries}
}

func resolutionOf(resp Response) Resolution {
	if resp.Kind == KindSuccess {
		return ResolutionSuccess
	}
	return ResolutionFailure
}
