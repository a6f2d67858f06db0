package repository

// PrincipalKind distinguishes the two account variants a token can be
// issued on behalf of.
type PrincipalKind string

const (
	// PrincipalIndividual is an individual account.
	PrincipalIndividual PrincipalKind = "individual"

	// PrincipalOrganization is an organization account acting through an
	// administering individual.
	PrincipalOrganization PrincipalKind = "organization"
)

// Valid reports whether k is one of the two known kinds.
func (k PrincipalKind) Valid() bool {
	return k == PrincipalIndividual || k == PrincipalOrganization
}

// Principal is the tagged union of the entity a token is issued for.
// An organization principal is only meaningful in a request context where
// the acting individual holds a current administrative membership; that
// check happens at every grant boundary and is never cached across
// requests.
type Principal struct {
	Kind PrincipalKind
	ID   string
}

// IndividualPrincipal builds an individual principal.
func IndividualPrincipal(id string) Principal {
	return Principal{Kind: PrincipalIndividual, ID: id}
}

// OrganizationPrincipal builds an organization principal.
func OrganizationPrincipal(id string) Principal {
	return Principal{Kind: PrincipalOrganization, ID: id}
}
