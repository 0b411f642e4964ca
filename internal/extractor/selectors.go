package extractor

// Class-based selectors for the site's markup. When the site changes its page
// structure, this file is the only place that needs updating.
const (
	// HomeLinkSelector matches the navigation link to the signed-in member's profile.
	HomeLinkSelector = "a.ember-view.block"

	profileContainerSelector  = "div.mt2.relative"
	profileNameSelector       = "h1.text-heading-xlarge"
	profileOccupationSelector = "h2.pv-text-details__right-panel-item-text"

	listContainerSelector  = "div.scaffold-finite-scroll__content"
	cardLinkSelector       = "a.mn-connection-card__link"
	cardNameSelector       = "span.mn-connection-card__name"
	cardOccupationSelector = "span.mn-connection-card__occupation"
	cardConnectedSelector  = "time.time-badge"
)

// Form fields on the login page.
const (
	UsernameSelector = "#username"
	PasswordSelector = "#password"
	SubmitSelector   = "button[type='submit']"
)
