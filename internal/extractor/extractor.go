package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/utils"
)

// Extractor turns static page snapshots into connection records.
type Extractor struct {
	base *url.URL
}

// New creates an Extractor that resolves relative profile links against baseURL.
func New(baseURL string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Extractor{base: base}, nil
}

// OwnProfile extracts the signed-in member from their profile page. It always yields
// exactly one record, with SelfStatus as its connection status and profileURL passed
// through unchanged.
func (e *Extractor) OwnProfile(html, profileURL string) ([]entity.Connection, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	container, err := first(doc.Selection, profileContainerSelector)
	if err != nil {
		return nil, err
	}
	name, err := first(container, profileNameSelector)
	if err != nil {
		return nil, err
	}
	heading, err := first(container, profileOccupationSelector)
	if err != nil {
		return nil, err
	}
	occupation := heading.ChildrenFiltered("div").First()
	if occupation.Length() == 0 {
		return nil, fmt.Errorf("%w: %s > div", repository.ErrElementNotFound, profileOccupationSelector)
	}

	return []entity.Connection{{
		Name:             strings.TrimSpace(name.Text()),
		Occupation:       strings.TrimSpace(occupation.Text()),
		ConnectionStatus: entity.SelfStatus,
		ProfileURL:       profileURL,
	}}, nil
}

// Connections extracts every card of the connections list, in document order.
// A list without items yields an empty slice. Any card missing one of its fields
// fails the whole document.
func (e *Extractor) Connections(html string) ([]entity.Connection, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	container, err := first(doc.Selection, listContainerSelector)
	if err != nil {
		return nil, err
	}
	list, err := first(container, "ul")
	if err != nil {
		return nil, err
	}

	items := list.Find("li")
	connections := make([]entity.Connection, 0, items.Length())
	for i := range items.Nodes {
		c, err := e.card(items.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("connection card %d: %w", i, err)
		}
		connections = append(connections, c)
	}
	return connections, nil
}

func (e *Extractor) card(item *goquery.Selection) (entity.Connection, error) {
	link, err := first(item, cardLinkSelector)
	if err != nil {
		return entity.Connection{}, err
	}
	href, ok := link.Attr("href")
	if !ok {
		return entity.Connection{}, fmt.Errorf("%w: %s[href]", repository.ErrElementNotFound, cardLinkSelector)
	}
	profileURL, err := utils.ToAbsoluteURL(e.base, strings.TrimSpace(href))
	if err != nil {
		return entity.Connection{}, fmt.Errorf("resolve profile link %q: %w", href, err)
	}

	name, err := first(item, cardNameSelector)
	if err != nil {
		return entity.Connection{}, err
	}
	occupation, err := first(item, cardOccupationSelector)
	if err != nil {
		return entity.Connection{}, err
	}
	connected, err := first(item, cardConnectedSelector)
	if err != nil {
		return entity.Connection{}, err
	}

	return entity.Connection{
		Name:             strings.TrimSpace(name.Text()),
		Occupation:       strings.TrimSpace(occupation.Text()),
		ConnectionStatus: strings.TrimSpace(connected.Text()),
		ProfileURL:       profileURL,
	}, nil
}

// HomeLinkHref returns the href of the navigation link to the member's own profile.
func HomeLinkHref(html string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	link, err := first(doc.Selection, HomeLinkSelector)
	if err != nil {
		return "", err
	}
	href, ok := link.Attr("href")
	if !ok {
		return "", fmt.Errorf("%w: %s[href]", repository.ErrElementNotFound, HomeLinkSelector)
	}
	return href, nil
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func first(s *goquery.Selection, selector string) (*goquery.Selection, error) {
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return found, nil
}
