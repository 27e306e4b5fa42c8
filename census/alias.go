package census

import "context"

// AliasRecorder attaches non-authoritative name spellings to residents.
type AliasRecorder struct {
	Store Store
}

func NewAliasRecorder(store Store) *AliasRecorder {
	return &AliasRecorder{Store: store}
}

// Record stores name as a variant of r. It is a get-or-create on
// (r.ID, Normalize(name.Primary)): repeating a call never adds a row and
// never overwrites the existing one. Names that normalize to "" are
// ignored and return (NameVariant{}, false, nil).
func (a *AliasRecorder) Record(ctx context.Context, r Resident, name DualName, source Source) (NameVariant, bool, error) {
	if !source.Valid() {
		return NameVariant{}, false, ErrInvalidSource
	}
	normalized := Normalize(name.Primary)
	if normalized == "" {
		return NameVariant{}, false, nil
	}
	return a.Store.GetOrCreateVariant(ctx, NameVariant{
		ResidentID: r.ID,
		Name:       name,
		Normalized: normalized,
		MemberName: r.Name,
		VoterID:    r.Identifiers.VoterID,
		Guardian:   r.Guardian,
		Source:     source,
		IsPrimary:  false,
	})
}

// Archive stores name as a variant of r before the canonical value is
// replaced. Unlike Record it keys on ArchiveKey, so all-initials names
// are kept; a name with only a Malayalam spelling is keyed by that. An
// empty name has nothing to archive and returns (NameVariant{}, false,
// nil); a name with no letters or digits cannot be keyed and returns
// ErrUnarchivableName.
func (a *AliasRecorder) Archive(ctx context.Context, r Resident, name DualName, source Source) (NameVariant, bool, error) {
	if !source.Valid() {
		return NameVariant{}, false, ErrInvalidSource
	}
	if name.IsZero() {
		return NameVariant{}, false, nil
	}
	key := ArchiveKey(name.Primary)
	if key == "" && name.Primary == "" {
		key = ArchiveKey(name.Secondary)
	}
	if key == "" {
		return NameVariant{}, false, ErrUnarchivableName
	}
	return a.Store.GetOrCreateVariant(ctx, NameVariant{
		ResidentID: r.ID,
		Name:       name,
		Normalized: key,
		MemberName: r.Name,
		VoterID:    r.Identifiers.VoterID,
		Guardian:   r.Guardian,
		Source:     source,
	})
}

// primaryVariant builds the first-sighting variant of a new resident.
func primaryVariant(r Resident, source Source) NameVariant {
	return NameVariant{
		ResidentID: r.ID,
		Name:       r.Name,
		Normalized: Normalize(r.Name.Primary),
		MemberName: r.Name,
		VoterID:    r.Identifiers.VoterID,
		Guardian:   r.Guardian,
		Source:     source,
		IsPrimary:  true,
	}
}
