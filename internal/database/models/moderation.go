package models

import "github.com/google/uuid"

// Moderation accessors shared by the three moderated record types.

func (o *Organization) GetStatus() Status          { return o.Status }
func (o *Organization) SetStatus(s Status)         { o.Status = s }
func (o *Organization) StampUpdatedBy(u uuid.UUID) { o.UpdatedByID = &u }

func (p *Project) GetStatus() Status          { return p.Status }
func (p *Project) SetStatus(s Status)         { p.Status = s }
func (p *Project) StampUpdatedBy(u uuid.UUID) { p.UpdatedByID = &u }

func (r *OrganizationMemberRequest) GetStatus() Status          { return r.Status }
func (r *OrganizationMemberRequest) SetStatus(s Status)         { r.Status = s }
func (r *OrganizationMemberRequest) StampUpdatedBy(u uuid.UUID) { r.UpdatedByID = &u }
