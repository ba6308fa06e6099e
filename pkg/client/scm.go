package client

import (
	"context"
	"fmt"

	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// Connect resolves the organization by name (then by long name) and loads the
// site and WAN inventories. Bad credentials surface here as an *APIError.
func (c *SCMClient) Connect(ctx context.Context, organization string) (*models.Organization, error) {
	orgs, err := c.List(ctx, "orgs")
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	found := findByField(orgs, "name", organization)
	if found == nil {
		found = findByField(orgs, "longname", organization)
	}
	if found == nil {
		return nil, &NotFoundError{Kind: constants.ResourceOrg, Name: organization}
	}

	org := &models.Organization{
		ID:       utils.GetIDFromObject(map[string]interface{}(found)),
		Name:     utils.GetString(found, "name"),
		LongName: utils.GetString(found, "longname"),
	}
	c.org = org.ID

	if err := c.cache.LoadSites(ctx); err != nil {
		return nil, err
	}
	if err := c.cache.LoadWANs(ctx); err != nil {
		return nil, err
	}

	return org, nil
}

// Sites returns the cached sites of the organization, sorted by name
func (c *SCMClient) Sites() []*models.Site {
	names := c.cache.Names(constants.ResourceSite)
	sites := make([]*models.Site, 0, len(names))
	for _, name := range names {
		obj, _ := c.cache.Get(constants.ResourceSite, name)
		sites = append(sites, siteFromObject(obj))
	}
	return sites
}

// FindSite looks a site up by exact name
func (c *SCMClient) FindSite(name string) (*models.Site, bool) {
	obj, ok := c.cache.Get(constants.ResourceSite, name)
	if !ok {
		return nil, false
	}
	return siteFromObject(obj), true
}

// CreateSite creates a site from a CSV record
func (c *SCMClient) CreateSite(ctx context.Context, rec *models.SiteRecord) (*models.Site, error) {
	payload := map[string]interface{}{
		"org":            c.org,
		"name":           rec.Name,
		"longname":       rec.LongName,
		"street_address": rec.StreetAddress,
		"city":           rec.City,
		"country":        rec.Country,
		"timezone":       rec.TimeZone,
		"tags":           c.tagManager.InjectTag(rec.Tags),
	}

	obj, err := c.Create(ctx, c.orgPath("sites"), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create site %s: %w", rec.Name, err)
	}

	site := siteFromObject(obj)
	if site.ID == "" {
		return nil, fmt.Errorf("failed to create site %s: response has no id", rec.Name)
	}
	if site.Name == "" {
		site.Name = rec.Name
		obj["name"] = rec.Name
	}
	c.cache.Put(constants.ResourceSite, obj)

	return site, nil
}

// EnsureSite returns the existing site named like the record, or creates it.
// The boolean is true when the site was created by this call.
func (c *SCMClient) EnsureSite(ctx context.Context, rec *models.SiteRecord) (*models.Site, bool, error) {
	if site, ok := c.FindSite(rec.Name); ok {
		return site, false, nil
	}

	site, err := c.CreateSite(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	return site, true, nil
}

// DeleteSite deletes a site and everything SCM attached to it
func (c *SCMClient) DeleteSite(ctx context.Context, site *models.Site) error {
	if err := c.Delete(ctx, constants.ResourceSite, site.ID); err != nil {
		return fmt.Errorf("failed to delete site %s: %w", site.Name, err)
	}
	c.cache.Remove(constants.ResourceSite, site.Name)
	return nil
}

// CreateZone configures the site's zone. SCM creates a default zone with every
// site, which is renamed and tagged; a zone is only created when none exists.
// The zone's network receives the subnet and the RouteVPN WAN.
func (c *SCMClient) CreateZone(ctx context.Context, siteID, name, subnet string, vlan int) (*models.Zone, error) {
	zones, err := c.List(ctx, resourcePath(constants.ResourceSite, siteID)+"/zones")
	if err != nil {
		return nil, fmt.Errorf("failed to list zones of site %s: %w", siteID, err)
	}

	payload := map[string]interface{}{
		"name": name,
		"site": siteID,
		"tag":  vlan,
	}

	var obj Object
	if len(zones) == 0 {
		obj, err = c.Create(ctx, c.orgPath("zones"), payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create zone %s: %w", name, err)
		}
	} else {
		obj = zones[0]
		if _, err := c.Update(ctx, constants.ResourceZone, utils.GetIDFromObject(map[string]interface{}(obj)), payload); err != nil {
			return nil, fmt.Errorf("failed to update zone %s: %w", name, err)
		}
	}

	zone := &models.Zone{
		ID:     utils.GetIDFromObject(map[string]interface{}(obj)),
		Site:   siteID,
		Name:   name,
		VLAN:   vlan,
		Subnet: subnet,
	}
	if zone.ID == "" {
		return nil, fmt.Errorf("failed to configure zone %s: no zone id", name)
	}

	networks := utils.GetStringSlice(obj, "networks")
	switch {
	case len(networks) > 0:
		zone.NetworkID = networks[0]
	case c.isPlaceholder(zone.ID):
		// a zone faked by a dry run has no network yet; show the update a real run makes
		zone.NetworkID = placeholderID()
	default:
		c.logger.Warning("Zone %s has no network, subnet %s not applied", name, subnet)
		return zone, nil
	}

	if err := c.updateNetwork(ctx, zone, nil); err != nil {
		return nil, err
	}

	return zone, nil
}

// FindWAN resolves a WAN by exact name
func (c *SCMClient) FindWAN(ctx context.Context, name string) (*models.WAN, error) {
	if !c.cache.Loaded(constants.ResourceWAN) {
		if err := c.cache.LoadWANs(ctx); err != nil {
			return nil, err
		}
	}

	id, ok := c.cache.GetID(constants.ResourceWAN, name)
	if !ok {
		return nil, &NotFoundError{Kind: constants.ResourceWAN, Name: name}
	}
	return &models.WAN{ID: id, Name: name}, nil
}

// CreateUplink binds the site to the requested WAN. A static Internet address
// is applied to the uplink SCM created with the site first; the new WAN is then
// attached to the zone network next to RouteVPN.
func (c *SCMClient) CreateUplink(ctx context.Context, req models.UplinkRequest) (*models.Uplink, error) {
	if !utils.IsDHCP(req.InternetIP) && req.InternetIP != "" {
		if err := c.updateInternetUplink(ctx, req.SiteID, req.InternetIP, req.InternetGW); err != nil {
			return nil, err
		}
	}

	payload := uplinkPayload(req.SiteID, req.WAN.ID, req.WANIP, req.WANGW)
	obj, err := c.Create(ctx, c.orgPath("uplinks"), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s uplink: %w", req.WAN.Name, err)
	}

	uplink := &models.Uplink{
		ID:   utils.GetIDFromObject(map[string]interface{}(obj)),
		Site: req.SiteID,
		WAN:  req.WAN.ID,
		Type: payload["type"].(string),
	}
	if ip, ok := payload["static_ip_v4"].(string); ok {
		uplink.Address = ip
		uplink.Gateway, _ = payload["static_gw_v4"].(string)
	}

	if req.Zone != nil && req.Zone.NetworkID != "" {
		if err := c.updateNetwork(ctx, req.Zone, &req.WAN); err != nil {
			return nil, err
		}
	}

	return uplink, nil
}

// updateInternetUplink rewrites the site's Internet uplink with a static address
func (c *SCMClient) updateInternetUplink(ctx context.Context, siteID, ip, gw string) error {
	internetID, ok := c.cache.GetID(constants.ResourceWAN, constants.WANInternet)
	if !ok {
		c.logger.Warning("Organization has no %s WAN, internet address %s not applied", constants.WANInternet, ip)
		return nil
	}

	uplinks, err := c.List(ctx, resourcePath(constants.ResourceSite, siteID)+"/uplinks")
	if err != nil {
		return fmt.Errorf("failed to list uplinks of site %s: %w", siteID, err)
	}

	uplinkID := ""
	for _, uplink := range uplinks {
		if utils.GetString(uplink, "wan") == internetID {
			uplinkID = utils.GetIDFromObject(map[string]interface{}(uplink))
			break
		}
	}
	if uplinkID == "" && c.isPlaceholder(siteID) {
		uplinkID = placeholderID()
	}
	if uplinkID == "" {
		c.logger.Warning("Site %s has no %s uplink, internet address %s not applied", siteID, constants.WANInternet, ip)
		return nil
	}

	payload := uplinkPayload(siteID, internetID, ip, gw)
	if _, err := c.Update(ctx, constants.ResourceUplink, uplinkID, payload); err != nil {
		return fmt.Errorf("failed to update %s uplink: %w", constants.WANInternet, err)
	}
	return nil
}

// updateNetwork sets the subnet and WAN list of a zone's network
func (c *SCMClient) updateNetwork(ctx context.Context, zone *models.Zone, wan *models.WAN) error {
	var wans []string
	if wan != nil {
		wans = append(wans, wan.ID)
	}
	if routeVPN, ok := c.cache.GetID(constants.ResourceWAN, constants.WANRouteVPN); ok && !utils.Contains(wans, routeVPN) {
		wans = append(wans, routeVPN)
	}
	if wans == nil {
		wans = []string{}
	}

	payload := map[string]interface{}{
		"name":  constants.DefaultNetworkName,
		"zone":  zone.ID,
		"site":  zone.Site,
		"netv4": zone.Subnet,
		"wans":  wans,
	}

	if _, err := c.Update(ctx, constants.ResourceNetwork, zone.NetworkID, payload); err != nil {
		return fmt.Errorf("failed to update network of zone %s: %w", zone.Name, err)
	}
	return nil
}

// uplinkPayload builds the body shared by uplink creation and update
func uplinkPayload(siteID, wanID, ip, gw string) map[string]interface{} {
	payload := map[string]interface{}{
		"site":                    siteID,
		"wan":                     wanID,
		"bgp_learned_routes_ver2": constants.DefaultBGPLearnedRoutes,
	}

	if ip == "" || utils.IsDHCP(ip) {
		payload["type"] = constants.UplinkTypeDHCP
		payload["static_ip_v4"] = nil
		payload["static_gw_v4"] = nil
	} else {
		payload["type"] = constants.UplinkTypeStatic
		payload["static_ip_v4"] = ip
		payload["static_gw_v4"] = gw
	}

	return payload
}

// siteFromObject converts an SCM site object
func siteFromObject(obj Object) *models.Site {
	return &models.Site{
		ID:       utils.GetIDFromObject(map[string]interface{}(obj)),
		Org:      utils.GetString(obj, "org"),
		Name:     utils.GetString(obj, "name"),
		LongName: utils.GetString(obj, "longname"),
		Tags:     utils.GetStringSlice(obj, "tags"),
	}
}

// findByField returns the first object whose field equals value
func findByField(objects []Object, field, value string) Object {
	for _, obj := range objects {
		if utils.GetString(obj, field) == value {
			return obj
		}
	}
	return nil
}
