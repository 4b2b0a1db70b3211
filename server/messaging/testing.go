package messaging

// ProviderStub records sends for tests, failing when SendError is set.
type ProviderStub struct {
	SendError error
	SentTo    []string
	SentBody  []string
}

func (stub *ProviderStub) Name() string {
	return "stub"
}

func (stub *ProviderStub) Send(to, message string) error {
	if stub.SendError != nil {
		return stub.SendError
	}

	stub.SentTo = append(stub.SentTo, to)
	stub.SentBody = append(stub.SentBody, message)

	return nil
}
