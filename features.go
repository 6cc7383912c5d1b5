package lok

// OptionalFeature is an engine behavior that is off unless the caller
// opts in. The blocking prompts in particular deadlock the triggering
// call when enabled without a handler that answers them.
type OptionalFeature uint64

const (
	// FeatureDocumentPassword makes the engine emit
	// CallbackDocumentPassword and wait for SetDocumentPassword or
	// DeclineDocumentPassword instead of failing encrypted loads
	// outright.
	FeatureDocumentPassword OptionalFeature = 1 << 0

	// FeatureDocumentPasswordToModify is the same prompt for documents
	// that open read-only without a modify password, emitted as
	// CallbackDocumentPasswordModify.
	FeatureDocumentPasswordToModify OptionalFeature = 1 << 1

	// FeaturePartInInvalidation adds the part number as a fifth value
	// in CallbackInvalidateTiles payloads.
	FeaturePartInInvalidation OptionalFeature = 1 << 2

	// FeatureNoTiledAnnotations turns off tile rendering for
	// annotations.
	FeatureNoTiledAnnotations OptionalFeature = 1 << 3

	// FeatureRangeHeaders enables range based header data.
	FeatureRangeHeaders OptionalFeature = 1 << 4

	// FeatureViewIDInVisCursorInvalidation adds the active view id as
	// the first value in CallbackInvalidateVisibleCursor payloads.
	FeatureViewIDInVisCursorInvalidation OptionalFeature = 1 << 5
)

func combineFeatures(features []OptionalFeature) uint64 {
	var flags uint64
	for _, f := range features {
		flags |= uint64(f)
	}
	return flags
}
