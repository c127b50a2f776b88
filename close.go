package dataview

// Close releases resources held by this container.
//
// Only journal-backed containers hold resources; for everything else
// Close is a no-op. The container itself stays usable in memory, but
// further mutations on a journal-backed container fail.
func (c *Container[ID]) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.journal != nil {
		if err := c.journal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
