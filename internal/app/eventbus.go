package app

const TopicAuditCreated = "audit:created"
const TopicAuditWriteFailed = "audit:write-failed"
const TopicIntegrityViolation = "audit:integrity-violation"
const TopicAlertSent = "alert:sent"
const TopicSecurityEvent = "security:event"
const TopicSystemEvent = "system:event"
const TopicServiceCreated = "service:created"
const TopicServiceUpdated = "service:updated"
const TopicServiceDeleted = "service:deleted"
const TopicNewsCreated = "news:created"
const TopicNewsUpdated = "news:updated"
const TopicNewsDeleted = "news:deleted"
const TopicCommunityEventCreated = "communityevent:created"
const TopicCommunityEventUpdated = "communityevent:updated"
const TopicCommunityEventDeleted = "communityevent:deleted"
